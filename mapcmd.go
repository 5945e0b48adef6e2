package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ctfarena/game"
)

var flagPlayers int

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Print the arena layout for a player count",
	RunE: func(_ *cobra.Command, _ []string) error {
		state, err := game.NewState(flagPlayers)
		if err != nil {
			return err
		}
		fmt.Println(state)
		return nil
	},
}

func init() {
	mapCmd.Flags().IntVar(&flagPlayers, "players", 4, "Number of players (2 or 4)")
}
