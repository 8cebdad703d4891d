package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(w io.Writer, header []string, rows [][]string) {
	tw := tablewriter.NewWriter(w)
	up := make([]string, len(header))
	for i, h := range header {
		up[i] = strings.ToUpper(h)
	}
	tw.SetHeader(up)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.AppendBulk(rows)
	tw.Render()
}

// banner: строка уведомления/ошибки под таблицей
func banner(w io.Writer, notice, errMsg string) {
	if notice != "" {
		fmt.Fprintln(w, notice)
	}
	if errMsg != "" {
		fmt.Fprintln(w, "error: "+errMsg)
	}
}
