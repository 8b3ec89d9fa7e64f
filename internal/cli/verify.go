// Package cli: verify.go implements the "pjforge verify" command.
//
// Verify runs only the smoke test against an already provisioned
// environment: import the pjsua2 binding, initialize and tear down an
// endpoint, and check the reported library version against the pin.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicelayer/pjforge/internal/config"
	"github.com/voicelayer/pjforge/internal/execx"
	"github.com/voicelayer/pjforge/internal/pyenv"
	"github.com/voicelayer/pjforge/internal/smoke"
)

// NewVerifyCommand creates the "verify" cobra command.
func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Smoke-test the provisioned pjsua2 runtime",
		Long: `Run the smoke test against the provisioned environment: the virtual
environment's interpreter imports pjsua2, creates and initializes an
endpoint, reads the library version, and destroys the endpoint.

Fails if the binding is not importable, endpoint initialization raises,
or the reported version does not match the pinned tag.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context())
		},
	}
}

func runVerify(ctx context.Context) error {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}

	py := pyenv.NewManager(execx.NewLocal())
	version, err := smoke.Run(ctx, py, cfg.VenvDir, cfg.LibDir(), cfg.Version)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]string{
			"pinnedVersion":   cfg.Version,
			"reportedVersion": version,
		}, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("pjsua2 OK (library version %s, pinned %s)\n", version, cfg.Version)
	return nil
}
