package main

import (
	stdcsv "encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"samfdw/internal/cell"
	"samfdw/internal/connector"
	"samfdw/internal/scan"
)

type scanFlags struct {
	columns     []string
	columnsFile string
	limit       int
	rescan      bool
	format      string
}

func newScanCmd(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Stream typed rows to stdout as CSV or NDJSON",
		Long: `scan runs one begin, iterate, end cycle over the extract and writes every
produced row. Records without a notice id are skipped. With --rescan the
cached extract is scanned a second time without fetching it again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := a.columns(f.columns, f.columnsFile)
			if err != nil {
				return err
			}
			w, err := newRowWriter(cmd.OutOrStdout(), f.format, fields)
			if err != nil {
				return err
			}
			defer w.Close()
			c, err := a.newConnector()
			if err != nil {
				return err
			}
			if err := runScan(cmd, c, fields, f, w); err != nil {
				return err
			}
			st := c.Session().Stats()
			a.log.Info("scan complete",
				"rows", st.Rows, "skips", st.Skips, "fetches", c.Session().Fetches())
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&f.columns, "columns", nil, "canonical fields to project (default all)")
	fl.StringVar(&f.columnsFile, "columns-file", "", "file listing fields, comma or newline separated")
	fl.IntVar(&f.limit, "limit", 0, "stop after this many rows per pass (0 = all)")
	fl.BoolVar(&f.rescan, "rescan", false, "scan the cached extract a second time")
	fl.StringVar(&f.format, "format", "csv", "output format: csv, ndjson or xlsx")
	return cmd
}

func runScan(cmd *cobra.Command, c *connector.Connector, fields []string, f scanFlags, w rowWriter) error {
	ctx := cmd.Context()
	if err := c.BeginScan(ctx); err != nil {
		return err
	}
	defer c.EndScan()

	if err := emit(c, fields, f.limit, w); err != nil {
		return err
	}
	if f.rescan {
		if err := c.ReScan(ctx); err != nil {
			return err
		}
		if err := emit(c, fields, f.limit, w); err != nil {
			return err
		}
	}
	return w.Flush()
}

// emit drives IterScan until done or limit rows were written.
func emit(c *connector.Connector, fields []string, limit int, w rowWriter) error {
	for n := 0; limit == 0 || n < limit; {
		res, err := c.IterScan(fields)
		if err != nil {
			return err
		}
		switch res.Outcome {
		case scan.OutcomeDone:
			return nil
		case scan.OutcomeSkip:
			continue
		}
		if err := w.Write(res.Row); err != nil {
			return err
		}
		n++
	}
	return nil
}

// rowWriter is flushed once after a successful scan and always closed.
type rowWriter interface {
	Write(cell.Row) error
	Flush() error
	Close() error
}

func newRowWriter(out io.Writer, format string, fields []string) (rowWriter, error) {
	switch format {
	case "csv":
		w := stdcsv.NewWriter(out)
		if err := w.Write(fields); err != nil {
			return nil, err
		}
		return &csvRows{w: w}, nil
	case "ndjson", "json":
		return &ndjsonRows{enc: json.NewEncoder(out), fields: fields}, nil
	case "xlsx":
		return newXLSXRows(out, fields)
	default:
		return nil, fmt.Errorf("unknown --format %q (want csv, ndjson or xlsx)", format)
	}
}

// csvRows writes Null as an empty field.
type csvRows struct{ w *stdcsv.Writer }

func (c *csvRows) Write(row cell.Row) error { return c.w.Write(row.Strings()) }

func (c *csvRows) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

func (c *csvRows) Close() error { return nil }

type ndjsonRows struct {
	enc    *json.Encoder
	fields []string
}

func (n *ndjsonRows) Write(row cell.Row) error {
	obj := make(map[string]any, len(n.fields))
	for i, f := range n.fields {
		obj[f] = cell.JSON(row[i])
	}
	return n.enc.Encode(obj)
}

func (n *ndjsonRows) Flush() error { return nil }

func (n *ndjsonRows) Close() error { return nil }

// xlsxRows streams rows into a single sheet; the workbook is only written to
// out on Flush.
type xlsxRows struct {
	out    io.Writer
	f      *excelize.File
	sw     *excelize.StreamWriter
	next   int
	closed bool
}

const xlsxSheet = "Sheet1"

func newXLSXRows(out io.Writer, fields []string) (*xlsxRows, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	header := make([]any, len(fields))
	for i, name := range fields {
		header[i] = name
	}
	x := &xlsxRows{out: out, f: f, sw: sw, next: 1}
	if err := x.setRow(header); err != nil {
		_ = f.Close()
		return nil, err
	}
	return x, nil
}

func (x *xlsxRows) setRow(values []any) error {
	axis, err := excelize.CoordinatesToCellName(1, x.next)
	if err != nil {
		return fmt.Errorf("xlsx: row %d: %w", x.next, err)
	}
	if err := x.sw.SetRow(axis, values); err != nil {
		return fmt.Errorf("xlsx: row %d: %w", x.next, err)
	}
	x.next++
	return nil
}

// Write maps Null to a blank cell and timestamps to native dates.
func (x *xlsxRows) Write(row cell.Row) error { return x.setRow(row.Values()) }

func (x *xlsxRows) Flush() error {
	if err := x.sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if _, err := x.f.WriteTo(x.out); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	return nil
}

// Close releases the workbook's temporary files.
func (x *xlsxRows) Close() error {
	if x.closed {
		return nil
	}
	x.closed = true
	return x.f.Close()
}
