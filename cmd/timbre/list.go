package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dudk/timbre/log"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/session"
)

var listFlags struct {
	standard bool
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show registered algorithms",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	cmd.Flags().BoolVar(&listFlags.standard, "standard", false, "List standard algorithms instead of streaming ones")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	s, err := session.New(session.WithLogger(log.Silent()))
	if err != nil {
		return err
	}
	defer s.Close()

	var names []string
	info := s.Streaming.Info
	if listFlags.standard {
		names = s.Standard.Names()
		info = s.Standard.Info
	} else {
		names = s.Streaming.Names()
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range names {
		d, _ := info(name)
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Category, d.Description)
	}
	return w.Flush()
}

// lookup returns descriptor of streaming algorithm or standard one if
// there is no streaming version.
func lookup(s *session.Session, name string) (registry.Descriptor, bool) {
	if d, ok := s.Streaming.Info(name); ok {
		return d, true
	}
	return s.Standard.Info(name)
}
