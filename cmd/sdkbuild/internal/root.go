package internal

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sdkbuild",
	Short: "sdkbuild drives Conan and CMake builds of the Astarte device SDK",
	Long: `sdkbuild builds the device SDK end-to-end application from its recipe and
prepares compilation databases for clang-tidy.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	log.SetFlags(0)
	log.SetPrefix("Error: ")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
