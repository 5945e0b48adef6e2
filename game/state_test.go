package game

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
)

func newTestState(t *testing.T, players int) *State {
	t.Helper()
	s, err := NewState(players)
	if err != nil {
		t.Fatalf("NewState(%d) failed: %v", players, err)
	}
	return s
}

func stayMoves(n int) []Move { return make([]Move, n) }

func repeatMove(n, player int, m Move) []Move {
	moves := stayMoves(n)
	moves[player] = m
	return moves
}

func TestNewStateStartsAtSpawn(t *testing.T) {
	s := newTestState(t, 4)
	want := []Vec{{0, 0}, {27, 0}, {0, 13}, {27, 13}}
	for i, p := range s.Positions() {
		if p != want[i] {
			t.Errorf("player %d at %v, expected %v", i, p, want[i])
		}
	}
	for team := 0; team < Teams; team++ {
		if _, ok := s.Captor(team); ok {
			t.Errorf("flag %d captured at start", team)
		}
	}
}

func TestStepStayIsIdempotent(t *testing.T) {
	for _, n := range []int{2, 4} {
		s := newTestState(t, n)
		// 先走几步制造一个非初始局面
		for i := 0; i < 10; i++ {
			s.Step(repeatMove(n, 0, MoveDownRight))
		}
		before := s.Positions()
		scores := s.Scores()
		captors := s.captors

		s.Step(stayMoves(n))

		for i, p := range s.Positions() {
			if p != before[i] {
				t.Errorf("N=%d player %d moved from %v to %v on stay", n, i, before[i], p)
			}
		}
		if s.Scores() != scores {
			t.Errorf("scores changed on stay: %v -> %v", scores, s.Scores())
		}
		if s.captors != captors {
			t.Errorf("captors changed on stay: %v -> %v", captors, s.captors)
		}
	}
}

func TestStepMissingMovesAreStay(t *testing.T) {
	s := newTestState(t, 4)
	s.Step([]Move{MoveDown})
	if got := s.Position(0); got != (Vec{0, Speed}) {
		t.Errorf("player 0 at %v, expected (0, %v)", got, Speed)
	}
	for i := 1; i < 4; i++ {
		if s.Position(i) != s.spawn[i] {
			t.Errorf("player %d moved without a move", i)
		}
	}
}

func TestStepClampsToArena(t *testing.T) {
	s := newTestState(t, 2)
	s.Step([]Move{MoveUpLeft, MoveUpRight})
	if got := s.Position(0); got != (Vec{0, 0}) {
		t.Errorf("player 0 at %v, expected (0, 0)", got)
	}
	if got := s.Position(1); got != (Vec{27, 0}) {
		t.Errorf("player 1 at %v, expected (27, 0)", got)
	}
}

func TestRandomWalkStaysContainedAndOutOfWalls(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{2, 4} {
		s := newTestState(t, n)
		for tick := 0; tick < 5000; tick++ {
			moves := make([]Move, n)
			for i := range moves {
				moves[i] = Move(rng.Intn(9))
			}
			s.Step(moves)

			for i, p := range s.positions {
				if p.X < 0 || p.X > s.width-Size || p.Y < 0 || p.Y > s.height-Size {
					t.Fatalf("N=%d tick %d: player %d escaped arena at %v", n, tick, i, p)
				}
				for _, w := range s.walls {
					if unitBox(p).overlaps(unitBox(w.Vec())) {
						t.Fatalf("N=%d tick %d: player %d at %v overlaps wall %v", n, tick, i, p, w)
					}
				}
			}
			assertFlagExclusivity(t, s)
		}
	}
}

func assertFlagExclusivity(t *testing.T, s *State) {
	t.Helper()
	for team, c := range s.captors {
		if c == noCaptor {
			continue
		}
		if TeamOf(c) == team {
			t.Fatalf("player %d holds own team's flag %d", c, team)
		}
		if c < 0 || c >= len(s.positions) {
			t.Fatalf("flag %d held by unknown player %d", team, c)
		}
	}
}

func TestRunToRightBoundary(t *testing.T) {
	s := newTestState(t, 2)
	// 让出 (27,0)，避免与 1 号玩家相撞
	s.positions[1] = Vec{27, 13}

	for i := 0; i < 108; i++ {
		s.Step(repeatMove(2, 0, MoveRight))
	}
	if got := s.Position(0); got != (Vec{27, 0}) {
		t.Fatalf("player 0 at %v after 108 steps, expected (27, 0)", got)
	}
	s.Step(repeatMove(2, 0, MoveRight))
	if got := s.Position(0).X; got != 27 {
		t.Errorf("x = %v after passing boundary, expected 27", got)
	}
}

func TestWallStopsMovement(t *testing.T) {
	s := newTestState(t, 2)
	// (4,4) 是墙，从 (0,4) 向右走应停在 wall_left - Size
	s.positions[0] = Vec{0, 4}
	for i := 0; i < 40; i++ {
		s.Step(repeatMove(2, 0, MoveRight))
	}
	if got := s.Position(0); got != (Vec{3, 4}) {
		t.Errorf("player 0 at %v, expected (3, 4)", got)
	}
}

func TestWallSliding(t *testing.T) {
	s := newTestState(t, 2)
	s.positions[0] = Vec{3, 4}
	s.Step(repeatMove(2, 0, MoveDownRight))
	if got := s.Position(0); got != (Vec{3, 4.25}) {
		t.Errorf("player 0 at %v, expected to slide to (3, 4.25)", got)
	}
}

func TestResolveWallPicksMinimumAxis(t *testing.T) {
	wall := Cell{10, 10}
	tests := []struct {
		name string
		in   Vec
		want Vec
	}{
		{"from left", Vec{9.25, 10}, Vec{9, 10}},
		{"from right", Vec{10.75, 10}, Vec{11, 10}},
		{"from above", Vec{10, 9.25}, Vec{10, 9}},
		{"from below", Vec{10, 10.75}, Vec{10, 11}},
		{"shallow x deep y", Vec{9.75, 10.1}, Vec{9, 10.1}},
		{"shallow y deep x", Vec{9.75, 10.5}, Vec{9.75, 11}},
		{"touching edge", Vec{9, 10}, Vec{9, 10}},
		{"far away", Vec{2, 2}, Vec{2, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveWall(tc.in, wall); got != tc.want {
				t.Errorf("resolveWall(%v) = %v, expected %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCollisionResetsIntruder(t *testing.T) {
	s := newTestState(t, 2)
	s.positions[0] = Vec{6, 1}
	s.positions[1] = Vec{6.25, 1}

	s.Step(stayMoves(2))

	if got := s.Position(1); got != s.spawn[1] {
		t.Errorf("player 1 at %v, expected reset to spawn %v", got, s.spawn[1])
	}
	if got := s.Position(0); got != (Vec{6, 1}) {
		t.Errorf("player 0 at %v, expected to stay at (6, 1)", got)
	}
}

func TestCollisionOnRightHalfResetsTeamZero(t *testing.T) {
	s := newTestState(t, 2)
	s.positions[0] = Vec{20, 2}
	s.positions[1] = Vec{20.5, 2}

	s.Step(stayMoves(2))

	if got := s.Position(0); got != s.spawn[0] {
		t.Errorf("player 0 at %v, expected reset to spawn", got)
	}
	if got := s.Position(1); got != (Vec{20.5, 2}) {
		t.Errorf("player 1 at %v, expected unchanged", got)
	}
}

func TestTeammatesDoNotCollide(t *testing.T) {
	s := newTestState(t, 4)
	s.positions[0] = Vec{20, 2}
	s.positions[2] = Vec{20.5, 2}

	s.Step(stayMoves(4))

	if s.Position(0) != (Vec{20, 2}) || s.Position(2) != (Vec{20.5, 2}) {
		t.Errorf("teammates were reset: %v %v", s.Position(0), s.Position(2))
	}
}

func TestAllCollidingPairsAreProcessed(t *testing.T) {
	s := newTestState(t, 4)
	// 1 号和 3 号（蓝队半场的红队）同时撞上 0 号
	s.positions[0] = Vec{6, 1}
	s.positions[1] = Vec{6.5, 1}
	s.positions[3] = Vec{5.5, 1}

	s.Step(stayMoves(4))

	if s.Position(1) != s.spawn[1] {
		t.Errorf("player 1 at %v, expected spawn", s.Position(1))
	}
	if s.Position(3) != s.spawn[3] {
		t.Errorf("player 3 at %v, expected spawn", s.Position(3))
	}
	if s.Position(0) != (Vec{6, 1}) {
		t.Errorf("player 0 at %v, expected unchanged", s.Position(0))
	}
}

func TestFlagCaptureIsExclusive(t *testing.T) {
	s := newTestState(t, 4)
	flag := s.flags[0].Vec()
	s.positions[1] = flag
	s.positions[3] = Vec{flag.X + 0.5, flag.Y}

	s.Step(stayMoves(4))

	c, ok := s.Captor(0)
	if !ok || c != 1 {
		t.Fatalf("Captor(0) = %d, %v; expected 1, true", c, ok)
	}
	assertFlagExclusivity(t, s)

	s.Step(stayMoves(4))
	if c, _ := s.Captor(0); c != 1 {
		t.Errorf("captor changed to %d while flag was held", c)
	}
}

func TestCannotCaptureOwnFlag(t *testing.T) {
	s := newTestState(t, 2)
	s.positions[0] = s.flags[0].Vec()

	s.Step(stayMoves(2))

	if _, ok := s.Captor(0); ok {
		t.Error("team 0 player captured its own flag")
	}
}

func TestCaptorReturningHomeReleasesFlag(t *testing.T) {
	s := newTestState(t, 2)
	s.positions[1] = s.flags[0].Vec()
	s.Step(stayMoves(2))
	if _, ok := s.Captor(0); !ok {
		t.Fatal("flag 0 not captured")
	}

	s.positions[1] = Vec{20, 5}
	s.Step(stayMoves(2))

	if _, ok := s.Captor(0); ok {
		t.Error("flag 0 still captured after captor reached home half")
	}
	if s.Scores() != [Teams]int{} {
		t.Errorf("Scores() = %v, expected untouched [0 0]", s.Scores())
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestState(t, 2)
	s.positions[1] = s.flags[0].Vec()
	s.Step(stayMoves(2))

	snap := s.Snapshot()
	if snap.Tick != 1 {
		t.Errorf("Tick = %d, expected 1", snap.Tick)
	}
	if snap.FlagCaptors[0] == nil || *snap.FlagCaptors[0] != 1 {
		t.Errorf("FlagCaptors[0] = %v, expected 1", snap.FlagCaptors[0])
	}
	if snap.FlagCaptors[1] != nil {
		t.Errorf("FlagCaptors[1] = %v, expected nil", *snap.FlagCaptors[1])
	}

	snap.Players[0][0] = 99
	if s.Position(0).X == 99 {
		t.Error("snapshot shares memory with state")
	}

	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(b), `"flag_captors":[1,null]`) {
		t.Errorf("unexpected snapshot json: %s", b)
	}
}

func TestReset(t *testing.T) {
	s := newTestState(t, 2)
	s.positions[1] = s.flags[0].Vec()
	s.Step(repeatMove(2, 0, MoveDown))

	s.Reset()

	if s.Tick() != 0 {
		t.Errorf("Tick() = %d after reset", s.Tick())
	}
	for i, p := range s.Positions() {
		if p != s.spawn[i] {
			t.Errorf("player %d at %v after reset", i, p)
		}
	}
	if _, ok := s.Captor(0); ok {
		t.Error("flag still captured after reset")
	}
}

func TestString(t *testing.T) {
	s := newTestState(t, 4)
	out := s.String()
	if !strings.HasPrefix(out, "Blue  0") {
		t.Errorf("unexpected header: %q", strings.SplitN(out, "\n", 2)[0])
	}
	if got := strings.Count(out, "#"); got != 16 {
		t.Errorf("rendered %d walls, expected 16", got)
	}
	for _, r := range "0123br" {
		if !strings.ContainsRune(out, r) {
			t.Errorf("render missing %q", r)
		}
	}
}
