package printer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/apkjob/internal/printer"
)

func TestFormatMB(t *testing.T) {
	tests := map[string]struct {
		input int64
		exp   string
	}{
		"zero bytes":         {input: 0, exp: "0.00 MB"},
		"two megabytes":      {input: 2097152, exp: "2.00 MB"},
		"half megabyte":      {input: 524288, exp: "0.50 MB"},
		"rounded megabytes":  {input: 1572864 + 10000, exp: "1.51 MB"},
		"hundreds megabytes": {input: 300 * 1024 * 1024, exp: "300.00 MB"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.FormatMB(test.input))
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := map[string]struct {
		input int64
		exp   string
	}{
		"zero bytes":                      {input: 0, exp: "0 Bytes"},
		"negative bytes should be zero":   {input: -10, exp: "0 Bytes"},
		"small bytes":                     {input: 512, exp: "512 Bytes"},
		"one kilobyte":                    {input: 1024, exp: "1 KB"},
		"kilobytes":                       {input: 1536, exp: "1.5 KB"},
		"kilobytes with two decimals":     {input: 1234, exp: "1.21 KB"},
		"one megabyte":                    {input: 1024 * 1024, exp: "1 MB"},
		"hundreds of megabytes":           {input: 700 * 1024 * 1024, exp: "700 MB"},
		"one gigabyte":                    {input: 1024 * 1024 * 1024, exp: "1 GB"},
		"terabytes should be shown in GB": {input: 2 * 1024 * 1024 * 1024 * 1024, exp: "2048 GB"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.FormatFileSize(test.input))
		})
	}
}
