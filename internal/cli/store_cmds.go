package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/objstore/pkg/backend"
	"github.com/arthur-debert/objstore/pkg/errors"
	"github.com/arthur-debert/objstore/pkg/store"
	"github.com/arthur-debert/objstore/pkg/ui"
)

func newCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <store>",
		Short: MsgCreateShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.manager.Create(args[0], a.options())
			if !h.Valid() {
				return h.Err()
			}
			if err := h.Close(); err != nil {
				return err
			}
			a.renderer.Success(MsgStoreCreated, args[0])
			return nil
		},
	}
	cmd.Flags().String("codec", "", MsgFlagCodec)
	return cmd
}

func newPutCmd(a *app) *cobra.Command {
	var (
		valueType string
		create    bool
	)

	cmd := &cobra.Command{
		Use:     "put <store> <key> <value>",
		Short:   MsgPutShort,
		Long:    MsgPutLong,
		Example: MsgPutExample,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, key := args[0], args[1]

			value, err := parseValue(valueType, args[2])
			if err != nil {
				return err
			}

			h := a.manager.OpenForUpdate(name, a.options())
			if !h.Valid() && create && errors.IsErrorCode(h.Err(), errors.ErrStoreNotFound) {
				log.Info().Str("store", name).Msg("Store does not exist, creating it")
				h = a.manager.Create(name, a.options())
			}
			if !h.Valid() {
				return h.Err()
			}

			if err := store.Write[any](h, key, value); err != nil {
				_ = h.Release()
				return err
			}
			if err := h.Close(); err != nil {
				_ = h.Release()
				return err
			}
			a.renderer.Success(MsgValueStored, key, name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&valueType, "type", "t", "string", MsgFlagType)
	cmd.Flags().BoolVar(&create, "create", false, MsgFlagCreate)
	cmd.Flags().String("codec", "", MsgFlagCodec)
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "get <store> <key>",
		Short:   MsgGetShort,
		Example: MsgGetExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.manager.Open(args[0], a.options())
			if !h.Valid() {
				return h.Err()
			}
			defer func() { _ = h.Close() }()

			v, err := store.Read[any](h, args[1])
			if err != nil {
				return err
			}
			return a.renderer.Value(args[1], v)
		},
	}
}

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <store>",
		Short: MsgLsShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.manager.Open(args[0], a.options())
			if !h.Valid() {
				return h.Err()
			}
			defer func() { _ = h.Close() }()

			entries, err := h.Entries()
			if err != nil {
				return err
			}
			return a.renderer.Rows(rowsFor(entries))
		},
	}
}

func rowsFor(entries []store.EntryInfo) []ui.Row {
	rows := make([]ui.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, ui.Row{Key: e.Name, Type: e.Type, Address: e.Address, Managed: e.Managed})
	}
	return rows
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <store>",
		Short: MsgInfoShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.manager.Open(args[0], a.options())
			if !h.Valid() {
				return h.Err()
			}
			defer func() { _ = h.Close() }()

			entries, err := h.Entries()
			if err != nil {
				return err
			}
			if a.renderer.Format() == ui.FormatJSON {
				return a.renderer.Rows(rowsFor(entries))
			}
			kind, err := h.Backend()
			if err != nil {
				return err
			}
			return a.renderer.Markdown(describe(h, kind, entries))
		},
	}
}

// describe summarizes a store as markdown.
func describe(h store.Handle, kind backend.Kind, entries []store.EntryInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", h.Name())
	fmt.Fprintf(&b, "- **Backend:** %s\n", kind)
	fmt.Fprintf(&b, "- **Mode:** %s\n", h.Mode())
	fmt.Fprintf(&b, "- **Entries:** %d\n\n", len(entries))

	if len(entries) == 0 {
		return b.String()
	}

	types := map[string]int{}
	var order []string
	for _, e := range entries {
		if types[e.Type] == 0 {
			order = append(order, e.Type)
		}
		types[e.Type]++
	}

	b.WriteString("## Types\n\n| Type | Entries |\n| --- | --- |\n")
	for _, t := range order {
		fmt.Fprintf(&b, "| `%s` | %d |\n", t, types[t])
	}
	return b.String()
}

func newRmStoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm-store <store>",
		Short: MsgRmStoreShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := a.manager.Recreate(args[0], a.options())
			if !h.Valid() {
				return h.Err()
			}
			if err := h.Close(); err != nil {
				return err
			}
			a.renderer.Success(MsgStoreErased, args[0])
			return nil
		},
	}
}

func newCacheDirCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cache-dir",
		Short: MsgCacheDirShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.renderer.Value("cache_dir", a.manager.CacheDir())
		},
	}
}
