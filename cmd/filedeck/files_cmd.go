package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/CageChen/filedeck/internal/actions"
	"github.com/CageChen/filedeck/internal/files"
	"github.com/CageChen/filedeck/internal/render"
	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the files on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDispatcher(terminalNotifier{w: os.Stderr})
		if err != nil {
			return err
		}

		stop := startSpinner("loading files")
		state, err := d.Refresh(cmd.Context())
		stop()

		if werr := render.WriteTable(cmd.OutOrStdout(), state); werr != nil {
			return werr
		}
		return err
	},
}

var putVars struct {
	name string
}

var putCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Upload a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDispatcher(terminalNotifier{w: os.Stderr})
		if err != nil {
			return err
		}

		local := args[0]
		info, err := os.Stat(local)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", local)
		}
		name := putVars.name
		if name == "" {
			name = filepath.Base(local)
		}

		sel := &actions.Selection{}
		sel.Select(actions.SelectedFile{
			Name: name,
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) {
				f, err := os.Open(local)
				if err != nil {
					return nil, err
				}
				bar := progressWriter(info.Size(), "uploading")
				return struct {
					io.Reader
					io.Closer
				}{io.TeeReader(f, bar), f}, nil
			},
		})

		if err := d.Upload(cmd.Context(), sel); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return render.WriteTable(cmd.OutOrStdout(), d.Renderer().State())
	},
}

var rmVars struct {
	yes bool
}

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a file on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDispatcher(terminalNotifier{w: os.Stderr})
		if err != nil {
			return err
		}

		confirmer := promptConfirmer{in: os.Stdin, out: os.Stderr, yes: rmVars.yes}
		err = d.Delete(cmd.Context(), args[0], confirmer)
		if errors.Is(err, actions.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "cancelled")
			return nil
		}
		return err
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <name>",
	Short: "Show the preview of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDispatcher(terminalNotifier{w: os.Stderr})
		if err != nil {
			return err
		}
		if _, err := d.Refresh(cmd.Context()); err != nil {
			return err
		}
		rec, ok := d.Renderer().Lookup(args[0])
		if !ok {
			return fmt.Errorf("%s is not on the server", args[0])
		}

		p, err := d.Preview(cmd.Context(), rec)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch p.Kind {
		case actions.KindImage:
			fmt.Fprintf(out, "image: %s\n", p.URL)
		case actions.KindText:
			fmt.Fprint(out, p.Text)
			if p.Truncated {
				fmt.Fprintln(out)
				warningColor.Fprintf(out, "[truncated at %s]\n", app.cfg.PreviewLimit.HR())
			}
		default:
			fmt.Fprintln(out, p.Message)
		}
		return nil
	},
}

var getVars struct {
	output string
	force  bool
}

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Download a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lister, err := files.NewLister(app.cfg.Server, httpClient())
		if err != nil {
			return err
		}
		dest := getVars.output
		if dest == "" {
			dest = filepath.Base(args[0])
		}
		return download(cmd, lister, args[0], dest)
	},
}

func download(cmd *cobra.Command, lister *files.Lister, name, dest string) error {
	if _, err := os.Stat(dest); err == nil && !getVars.force {
		return fmt.Errorf("file '%s' already exists", dest)
	}

	target := lister.FileURL(name)
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := lister.Client().Do(req)
	if err != nil {
		return &files.NetworkError{Op: "GET", URL: target, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &files.NetworkError{Op: "GET", URL: target, StatusCode: resp.StatusCode}
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	written, err := io.Copy(io.MultiWriter(f, progressWriter(resp.ContentLength, "downloading")), resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nfinished, downloaded %s\n", (datasize.ByteSize(written) * datasize.B).HR())
	return nil
}

func init() {
	putCmd.Flags().StringVarP(&putVars.name, "name", "n", "", "name on the server (default is the local base name)")
	rmCmd.Flags().BoolVarP(&rmVars.yes, "yes", "y", false, "do not ask for confirmation")
	getCmd.Flags().StringVarP(&getVars.output, "output", "o", "", "local destination")
	getCmd.Flags().BoolVarP(&getVars.force, "force", "f", false, "overwrite an existing file")

	rootCmd.AddCommand(lsCmd, putCmd, rmCmd, previewCmd, getCmd)
}
