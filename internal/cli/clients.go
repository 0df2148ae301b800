package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/roach88/clientsync/internal/ir"
)

// NewClientsCommand creates the clients command.
func NewClientsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List the records in the clients collection",
		Long: `List the records in the clients collection as last uploaded.

Each row shows a device and the commands waiting on its record. The row
for this device is marked with *.

Example:
  clientsync clients --config laptop.yaml
  clientsync clients --config laptop.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listClients(rootOpts, cmd)
		},
	}

	return cmd
}

// ClientRow is one record in the clients listing.
type ClientRow struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Commands []string `json:"commands"`
	Self     bool     `json:"self"`
	// Hash is the record's content hash, for comparing listings.
	Hash string `json:"hash,omitempty"`
	// Invalid is set when the stored payload is not a client record.
	Invalid bool `json:"invalid,omitempty"`
}

// ClientsResult is the clients listing.
type ClientsResult struct {
	Clients []ClientRow `json:"clients"`
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func (r ClientsResult) String() string {
	if len(r.Clients) == 0 {
		return "No clients"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("", "ID", "NAME", "TYPE", "COMMANDS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, c := range r.Clients {
		marker := ""
		if c.Self {
			marker = "*"
		}
		name := c.Name
		if c.Invalid {
			name = "(unreadable)"
		}
		t.Row(marker, c.ID, name, c.Type, strings.Join(c.Commands, " "))
	}
	return t.String()
}

func listClients(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	a, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return err
	}
	defer a.close()

	payloads, err := a.store.Records(ctx, ir.CollectionClients)
	if err != nil {
		_ = out.Error(ErrCodeStore, "failed to list clients", err.Error())
		return WrapExitError(ExitFailure, "failed to list clients", err)
	}

	result := ClientsResult{Clients: []ClientRow{}}
	for _, p := range payloads {
		row := ClientRow{ID: p.ID, Self: p.ID == a.cfg.Device.ClientID, Commands: []string{}}

		var record ir.Client
		if err := p.IntoRecord(&record); err != nil {
			a.logger.Warn().Err(err).Str("id", p.ID).Msg("unreadable client record")
			row.Invalid = true
			result.Clients = append(result.Clients, row)
			continue
		}

		row.Name = record.Name
		row.Type = record.Type
		if hash, err := ir.RecordHash(record); err == nil {
			row.Hash = hash[:12]
		}
		for _, cc := range record.Commands {
			row.Commands = append(row.Commands, describeCommand(cc))
		}
		result.Clients = append(result.Clients, row)
	}

	return out.Success(result)
}

// describeCommand names a record command by its CLI name, or by its wire
// form when it has no canonical value.
func describeCommand(cc ir.ClientCommand) string {
	if c, ok := cc.AsCommand(); ok {
		return c.String()
	}
	if len(cc.Args) == 0 {
		return cc.Name
	}
	return fmt.Sprintf("%s(%s)", cc.Name, strings.Join(cc.Args, ","))
}
