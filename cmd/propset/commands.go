package main

import (
	"fmt"
	"strings"

	"github.com/eightycats/litterbox/export"
	"github.com/eightycats/litterbox/propfile"
	"github.com/eightycats/litterbox/props"
	"github.com/eightycats/litterbox/u"

	"github.com/spf13/cobra"
)

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "propset",
		Short: "Read and edit .properties files",
		Long: `propset reads and edits .properties files without losing comments
or the order of properties.

A location is a local path or one of:
  http(s)://host/path            read-only
  s3://bucket/key                bucket defaults to minio.bucket from config
  ssh://[user@]host[:port]/path  user, port and key default to [ssh] config

Files ending in .gz, .bz2, .zst or .br are (de)compressed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config file (default $PROPSET_CONFIG or ~/.config/propset.toml)")
	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(newSetCmd(app, false))
	rootCmd.AddCommand(newSetCmd(app, true))
	rootCmd.AddCommand(newGetCmd(app))
	rootCmd.AddCommand(newListCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
	rootCmd.AddCommand(newDiffCmd(app))
	rootCmd.AddCommand(newLsCmd(app))
	rootCmd.AddCommand(newSetsCmd(app))
	return rootCmd
}

// parseAssignments puts "key=value" args into s. Only the first '=' splits,
// so values can contain '='.
func parseAssignments(args []string, s *props.Store) error {
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid argument '%s', expected key=value", arg)
		}
		s.Put(k, v)
	}
	return nil
}

type setOptions struct {
	properties string
	output     string
	header     string
	dryRun     bool
}

func newSetCmd(app *App, defaultsOnly bool) *cobra.Command {
	var opts setOptions
	cmd := &cobra.Command{
		Use:   "set <location> [key=value...]",
		Short: "Set properties, adding keys that don't exist",
		Long: `Set properties in a file. Existing properties are changed in place,
new ones are added at the end. Comments are kept.

Examples:
  propset set app.properties port=8080 host=example.com
  propset set app.properties --properties overrides.properties
  propset set ssh://deploy@web1/etc/app.properties port=80 --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("header") {
				opts.header = app.Config.Header
			}
			return app.runSet(cmd, args[0], args[1:], &opts, defaultsOnly)
		},
	}
	if defaultsOnly {
		cmd.Use = "default <location> [key=value...]"
		cmd.Short = "Set properties that are missing or blank"
		cmd.Long = `Like set, but only changes properties that don't exist or have a blank
value. Use it to fill in defaults without overwriting local changes.

Examples:
  propset default app.properties log.level=info
  propset default app.properties --properties defaults.properties`
	}
	f := cmd.Flags()
	f.StringVarP(&opts.properties, "properties", "p", "", "read properties to set from this location")
	f.StringVarP(&opts.output, "output", "o", "", "write the result here instead of the input location")
	f.StringVar(&opts.header, "header", "", "header comment written at the top of the file")
	f.BoolVarP(&opts.dryRun, "dry-run", "n", false, "show a diff instead of writing")
	return cmd
}

func (a *App) runSet(cmd *cobra.Command, locArg string, assignments []string, opts *setOptions, defaultsOnly bool) error {
	ctx := cmd.Context()

	changes := props.New()
	if opts.properties != "" {
		loc, err := a.parseLocation(opts.properties)
		if err != nil {
			return err
		}
		if changes, err = loc.Read(ctx); err != nil {
			return err
		}
	}
	if err := parseAssignments(assignments, changes); err != nil {
		return err
	}
	if changes.Len() == 0 {
		return fmt.Errorf("nothing to set, give key=value arguments or --properties")
	}

	src, err := a.parseLocation(locArg)
	if err != nil {
		return err
	}
	dst := src
	if opts.output != "" {
		if dst, err = a.parseLocation(opts.output); err != nil {
			return err
		}
	}

	s, err := src.Read(ctx)
	if err != nil {
		return err
	}
	before := s.Bytes("")
	s.OnChange(props.ChangeListenerFunc(func(ev props.ChangeEvent) {
		a.Log.Verbosef("%s: %s '%s'\n", src, ev.Kind, ev.Key)
	}))
	n := propfile.Apply(s, changes, defaultsOnly)
	header := propfile.HeaderFor(s, opts.header)

	if opts.dryRun {
		diff, err := export.Diff(src.String(), dst.String(), before, s.Bytes(header))
		if err != nil {
			return err
		}
		if diff == "" {
			a.printf("%s: no changes\n", src)
			return nil
		}
		a.printf("%s", a.colorDiff(diff))
		return nil
	}

	if n == 0 && dst == src {
		a.printf("%s: no changes\n", src)
		return nil
	}
	if err = dst.Write(ctx, s, header); err != nil {
		return err
	}
	_ = a.Log.Event("propset.set", "location", dst.String(), "changed", n, "defaults", defaultsOnly)
	a.printf("%s: %d changed\n", dst, n)
	return nil
}

func newGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <location> <key>",
		Short: "Print the value of a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := app.parseLocation(args[0])
			if err != nil {
				return err
			}
			s, err := loc.Read(cmd.Context())
			if err != nil {
				return err
			}
			v, err := props.Required(s, args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", loc, err)
			}
			app.printf("%s\n", v)
			return nil
		},
	}
}

func newListCmd(app *App) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list <location>",
		Short: "Print properties as key=value",
		Long: `Print all properties as key=value, in file order.

With --prefix, prints values of an indexed list: prefix0, prefix1, ...
up to the first missing index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := app.parseLocation(args[0])
			if err != nil {
				return err
			}
			s, err := loc.Read(cmd.Context())
			if err != nil {
				return err
			}
			if prefix != "" {
				for _, v := range props.IndexedList(s, prefix) {
					app.printf("%s\n", v)
				}
				return nil
			}
			for k, v := range s.All() {
				app.printf("%s=%s\n", k, v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "print values of indexed list prefix0, prefix1, ...")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <location>",
		Short: "Print properties as json, yaml, toml, toon or properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			loc, err := app.parseLocation(args[0])
			if err != nil {
				return err
			}
			s, err := loc.Read(cmd.Context())
			if err != nil {
				return err
			}
			d, err := export.Convert(s, f)
			if err != nil {
				return err
			}
			_, err = app.Out.Write(d)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json, yaml, toml, toon or properties")
	return cmd
}

func newDiffCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <location> <location>",
		Short: "Show a unified diff of two properties files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data [2][]byte
			var names [2]string
			for i, arg := range args {
				loc, err := app.parseLocation(arg)
				if err != nil {
					return err
				}
				s, err := loc.Read(cmd.Context())
				if err != nil {
					return err
				}
				data[i] = s.Bytes("")
				names[i] = loc.String()
			}
			diff, err := export.Diff(names[0], names[1], data[0], data[1])
			if err != nil {
				return err
			}
			app.printf("%s", app.colorDiff(diff))
			return nil
		},
	}
}

func newLsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ls s3://bucket/[prefix]",
		Short: "List objects in a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket, prefix, err := app.parseS3URL(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			c, err := app.minioClient(ctx, bucket)
			if err != nil {
				return err
			}
			keys, err := c.List(ctx, prefix)
			if err != nil {
				return err
			}
			for _, key := range keys {
				app.printf("s3://%s/%s\n", bucket, key)
			}
			return nil
		},
	}
}

func newSetsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sets <file.xml> [name...]",
		Short: "Print property sets from an XML file, inherited values included",
		Long: `Print named property sets defined in an XML file as properties, each
preceded by a "#name" header. A set includes the values of the set it
extends. With no names, all sets are printed.

  <config>
    <properties name="base">
      <entry key="db.host">localhost</entry>
    </properties>
    <properties name="prod" extends="base">
      <entry key="db.host">10.0.0.5</entry>
    </properties>
  </config>`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := u.OpenFileMaybeCompressed(path)
			if err != nil {
				return err
			}
			defer u.CloseNoError(f)
			sets, err := props.LoadSets(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			names := args[1:]
			if len(names) == 0 {
				names = sets.Names()
			}
			for _, name := range names {
				s, err := sets.Flatten(name)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err = s.Save(app.Out, name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
