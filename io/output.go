package io

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/phil-mansfield/table"
)

// WriteColumns writes cols to w as a whitespace-separated text table. Each
// name in names is written on a leading comment line so that the file can
// be read back with ReadColumns. All columns must have the same length.
func WriteColumns(w io.Writer, names []string, cols ...[]float64) error {
	if len(names) != len(cols) {
		return fmt.Errorf(
			"Given %d column names, but %d columns.", len(names), len(cols),
		)
	}
	n := 0
	if len(cols) > 0 {
		n = len(cols[0])
	}
	for i := range cols {
		if len(cols[i]) != n {
			return fmt.Errorf(
				"Column '%s' has length %d, but column '%s' has length %d.",
				names[i], len(cols[i]), names[0], n,
			)
		}
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("#")
	for _, name := range names {
		bw.WriteString(" ")
		bw.WriteString(name)
	}
	bw.WriteString("\n")

	buf := []byte{}
	for row := 0; row < n; row++ {
		buf = buf[:0]
		for i := range cols {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, cols[i][row], 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadColumns reads the requested columns of a whitespace-separated text
// table. Comment lines are skipped.
func ReadColumns(fname string, colIdxs ...int) ([][]float64, error) {
	cols, err := table.ReadTable(fname, colIdxs, nil)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", fname, err)
	}
	return cols, nil
}
