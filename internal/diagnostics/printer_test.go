package diagnostics

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintDeduplicates(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	warning := "blur.hlsl(7,1): warning X4000: use of potentially uninitialized variable"
	p.Print(warning)
	p.Print(warning)
	p.Print(warning + "\n" + warning)

	assert.Equal(t, warning+"\n", out.String())
}

func TestPrintDistinctLinesAllEmitted(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	p.Print("first line\nsecond line")
	p.Print("third line")

	assert.Equal(t, "first line\nsecond line\nthird line\n", out.String())
}

func TestPrintIgnoresKnownPragmaWarnings(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	for _, token := range []string{"target", "namespace", "entry", "option"} {
		p.Print(fmt.Sprintf("blur.hlsl(1,1): warning X3568: '%s' : unknown pragma ignored", token))
	}

	assert.Empty(t, out.String())
}

func TestPrintDoesNotIgnoreOtherPragmas(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	line := "blur.hlsl(1,1): warning X3568: 'pack_matrix' : unknown pragma ignored"
	p.Print(line)

	assert.Equal(t, line+"\n", out.String())
}

func TestPrintSkipsEmptyAndCRLF(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	p.Print("")
	p.Print("\r\n\r\n")
	p.Print("windows line\r\nsecond\r\n")

	assert.Equal(t, "windows line\nsecond\n", out.String())
}

func TestPrintConcurrent(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				p.Print(fmt.Sprintf("shared warning %d", j))
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, 50)
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		_, dup := seen[line]
		assert.False(t, dup, "line %q printed twice", line)
		seen[line] = struct{}{}
	}
}

func TestNewPrinterNilWriterDefaultsToStdout(t *testing.T) {
	p := NewPrinter(nil)
	assert.NotNil(t, p.out)
}
