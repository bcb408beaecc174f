// Command resolvectl runs the resolution pipeline from the terminal, checks
// platform sessions and uploads cookie jars to the configured bucket.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
