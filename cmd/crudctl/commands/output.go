package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// format returns the selected output format. Without --output or a
// configured default it is table on a terminal and json otherwise.
func (rt *runtime) format() (string, error) {
	format := strings.ToLower(rt.settings.GetString(constants.SettingOutput, ""))

	switch format {
	case "":
		if f, ok := rt.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return constants.FormatTable, nil
		}

		return constants.FormatJSON, nil
	case constants.FormatJSON, constants.FormatYAML, constants.FormatTable:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrInvalidFormat, format)
	}
}

// print writes value in the selected format, using table for the table
// format.
func (rt *runtime) print(value any, table func(w io.Writer) error) error {
	format, err := rt.format()
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		return writeJSON(rt.out, value)
	case constants.FormatYAML:
		return writeYAML(rt.out, value)
	default:
		return table(rt.out)
	}
}

// printData writes a raw JSON response.
func (rt *runtime) printData(data json.RawMessage) error {
	var value any

	if len(data) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()

		err := decoder.Decode(&value)
		if err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return rt.print(value, func(w io.Writer) error {
		return renderValue(w, value)
	})
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	return encoder.Encode(value)
}

func writeYAML(w io.Writer, value any) error {
	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()

	return encoder.Encode(jsonNumbersToYAML(value))
}

// jsonNumbersToYAML replaces json.Number, which yaml would quote, with
// plain numbers.
func jsonNumbersToYAML(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}

		if f, err := v.Float64(); err == nil {
			return f
		}

		return v.String()
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = jsonNumbersToYAML(item)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = jsonNumbersToYAML(item)
		}

		return out
	default:
		return value
	}
}

// renderValue renders decoded JSON as a table: normalised pages and arrays
// of objects as one row per item, objects as property/value pairs.
func renderValue(w io.Writer, value any) error {
	switch v := value.(type) {
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			if pagination, ok := v["pagination"].(map[string]any); ok {
				err := renderRows(w, items)
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(w, "offset %s, limit %s, total %s\n",
					cell(pagination["offset"]), cell(pagination["limit"]), cell(pagination["total"]))

				return err
			}
		}

		return renderObject(w, v)
	case []any:
		return renderRows(w, v)
	case nil:
		_, err := fmt.Fprintln(w, constants.NotAvailable)

		return err
	default:
		_, err := fmt.Fprintln(w, cell(v))

		return err
	}
}

func renderObject(w io.Writer, object map[string]any) error {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, key := range keys {
		_ = table.Append(key, cell(object[key]))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderRows(w io.Writer, items []any) error {
	var columns []string

	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			continue
		}

		for key := range object {
			if !slices.Contains(columns, key) {
				columns = append(columns, key)
			}
		}
	}

	slices.Sort(columns)

	if len(columns) == 0 {
		columns = []string{"value"}
	}

	table := tablewriter.NewWriter(w)
	table.Header(toAny(columns)...)

	for _, item := range items {
		row := make([]any, len(columns))

		object, ok := item.(map[string]any)
		for i, column := range columns {
			switch {
			case ok:
				row[i] = cell(object[column])
			case i == 0:
				row[i] = cell(item)
			default:
				row[i] = ""
			}
		}

		_ = table.Append(row...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// cell formats one table cell. Nested values are shown as compact JSON.
func cell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number, bool:
		return fmt.Sprint(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}
