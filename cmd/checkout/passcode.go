// cmd/checkout/passcode.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"libracheckout/internal/circulation"
)

var hashPasscodeCmd = &cobra.Command{
	Use:   "hash-passcode <passcode>",
	Short: "Hash a staff override passcode for OVERRIDE_PASSCODE_HASH/SALT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := circulation.HashPasscode(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "OVERRIDE_PASSCODE_HASH=%s\nOVERRIDE_PASSCODE_SALT=%s\n", p.Hash, p.Salt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasscodeCmd)
}
