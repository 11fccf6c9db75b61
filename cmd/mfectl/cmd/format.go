package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/mfe"
)

// NewFormatCommand creates the format command
func NewFormatCommand(root *rootOptions) *cobra.Command {
	var message string
	var useCatalog bool

	cmd := &cobra.Command{
		Use:   "format CODE [ARG...]",
		Short: "Format a coded error message",
		Long: `Format prints the formatted error message for CODE with the given
arguments. The message text comes from --message, or from the error catalog
with --catalog.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %s", mfe.ErrInvalidErrorCode, args[0])
			}
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			rest := make([]any, 0, len(args)-1)
			for _, arg := range args[1:] {
				rest = append(rest, arg)
			}

			msg := message
			if useCatalog {
				catalogMsg, ok := mfe.CatalogMessage(code, rest...)
				if !ok {
					return fmt.Errorf("%w: %d is not in the catalog", mfe.ErrInvalidErrorCode, code)
				}
				msg = catalogMsg
			}

			fmt.Fprintln(cmd.OutOrStdout(), cfg.Formatter().Format(code, msg, rest...))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "human-readable message")
	cmd.Flags().BoolVar(&useCatalog, "catalog", false, "use the error catalog text for CODE")
	return cmd
}

// NewDecodeCommand creates the decode command
func NewDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode MESSAGE",
		Short: "Decode a formatted error message",
		Long: `Decode parses a formatted error message and prints its code, message and
arguments as JSON, together with the catalog text for the code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decoded, err := mfe.ParseErrorMessage(args[0])
			if err != nil {
				return err
			}

			catalogArgs := make([]any, len(decoded.Args))
			for i, arg := range decoded.Args {
				catalogArgs[i] = arg
			}
			catalogMsg, _ := mfe.CatalogMessage(decoded.Code, catalogArgs...)

			out := struct {
				*mfe.FormattedMessage
				Catalog string `json:"catalog,omitempty"`
			}{decoded, catalogMsg}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
