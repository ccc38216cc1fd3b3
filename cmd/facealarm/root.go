package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facealarm",
	Short: "Watch a camera and raise one alarm when a face appears",
	Long: `facealarm reads frames from a camera, detects faces with a Haar cascade
and, on the first detection, plays an alarm sound and sends one notification
email. Settings come from the environment or a .env file.`,
	SilenceUsage: true,
	RunE:         runWatch,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
