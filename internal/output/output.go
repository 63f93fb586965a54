// 包 output：控制台结果渲染（表格、JSON、YAML）
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

// Format：输出格式
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Table：表格数据；JSON/YAML 输出编码的是 Data 而不是行文本
type Table struct {
	Headers []string
	Rows    [][]string
	Data    any
}

// ParseFormat：校验格式名，空串表示自动检测
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatTable, FormatJSON, FormatYAML, "":
		return f, nil
	}
	return "", fmt.Errorf("invalid output format %q (table, json, yaml)", s)
}

// DetectFormat：显式格式优先；终端输出表格，管道/重定向输出 JSON
func DetectFormat(explicit Format) Format {
	if explicit != "" {
		return explicit
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// Write：按格式渲染
func Write(w io.Writer, f Format, t Table) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(t.Data)
	case FormatYAML:
		b, err := yaml.MarshalWithOptions(t.Data, yaml.Indent(2), yaml.IndentSequence(false), yaml.UseJSONMarshaler())
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return writeTable(w, t)
	}
}

func writeTable(w io.Writer, t Table) error {
	table := tablewriter.NewTable(w)
	if len(t.Headers) > 0 {
		headers := make([]any, len(t.Headers))
		for i, h := range t.Headers {
			headers[i] = h
		}
		table.Header(headers...)
	}
	for _, row := range t.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	return table.Render()
}
