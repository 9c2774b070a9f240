// Package xmlconf imports equation definitions from XML files of the
// form:
//
//	<equations>
//	  <equation>
//	    <name>base_price</name>
//	    <value>100</value>            <!-- constant -->
//	  </equation>
//	  <equation>
//	    <name>total</name>
//	    <expression>base_price * tax_rate</expression>
//	  </equation>
//	</equations>
//
// Each entry becomes a "<name> = <body>" definition string; the
// equation parser validates syntax downstream.
package xmlconf

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/vk/fieldflow/internal/ctxlog"
)

type xmlEquations struct {
	XMLName   xml.Name      `xml:"equations"`
	Equations []xmlEquation `xml:"equation"`
}

type xmlEquation struct {
	Name       string  `xml:"name"`
	Value      *string `xml:"value"`
	Expression *string `xml:"expression"`
}

// Import reads an XML equation file and returns the equation
// definition strings in document order.
func Import(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading equations file: %w", err)
	}

	var doc xmlEquations
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing equations file %s: %w", path, err)
	}

	equations := make([]string, 0, len(doc.Equations))
	for _, eq := range doc.Equations {
		name := strings.TrimSpace(eq.Name)
		if name == "" {
			return nil, fmt.Errorf("equations file %s: equation with empty name", path)
		}
		var body string
		switch {
		case eq.Value != nil:
			body = strings.TrimSpace(*eq.Value)
		case eq.Expression != nil:
			body = strings.TrimSpace(*eq.Expression)
		default:
			return nil, fmt.Errorf("equations file %s: equation %q has neither value nor expression", path, name)
		}
		equations = append(equations, fmt.Sprintf("%s = %s", name, body))
	}

	ctxlog.FromContext(ctx).Debug("XML equation import complete.", "path", path, "count", len(equations))
	return equations, nil
}
