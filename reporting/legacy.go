package reporting

import (
	"encoding/xml"
	"fmt"

	"github.com/testmux/testmux/types"
)

// Legacy XML document shape, kept for consumers of the older report format.
// The transform from the native tree is purely structural.

type legacyDocument struct {
	XMLName    xml.Name         `xml:"assemblies"`
	Assemblies []legacyAssembly `xml:"assembly"`
}

type legacyAssembly struct {
	Name    string        `xml:"name,attr"`
	RunDate string        `xml:"run-date,attr"`
	RunTime string        `xml:"run-time,attr"`
	Time    string        `xml:"time,attr"`
	Total   int           `xml:"total,attr"`
	Passed  int           `xml:"passed,attr"`
	Failed  int           `xml:"failed,attr"`
	Skipped int           `xml:"skipped,attr"`
	Classes []legacyClass `xml:"class"`
}

type legacyClass struct {
	Name    string       `xml:"name,attr"`
	Time    string       `xml:"time,attr"`
	Total   int          `xml:"total,attr"`
	Passed  int          `xml:"passed,attr"`
	Failed  int          `xml:"failed,attr"`
	Skipped int          `xml:"skipped,attr"`
	Tests   []legacyTest `xml:"test"`
}

type legacyTest struct {
	Name    string         `xml:"name,attr"`
	Method  string         `xml:"method,attr"`
	Result  string         `xml:"result,attr"`
	Time    string         `xml:"time,attr"`
	Failure *legacyFailure `xml:"failure,omitempty"`
}

type legacyFailure struct {
	Message    string `xml:"message"`
	StackTrace string `xml:"stack-trace,omitempty"`
}

// WriteLegacyXML transforms the native tree into the legacy document shape and
// writes it to path.
func WriteLegacyXML(tree *types.ResultRoot, path string) error {
	doc := transformLegacy(tree)
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing legacy report: %w", err)
	}
	return writeReport(path, append([]byte(xml.Header), data...))
}

func transformLegacy(tree *types.ResultRoot) legacyDocument {
	doc := legacyDocument{}
	for _, asm := range tree.Assemblies {
		class := legacyClass{
			Name:    asm.Name,
			Time:    asm.Time,
			Total:   asm.Total,
			Passed:  asm.Passed,
			Failed:  asm.Failed + asm.Errors,
			Skipped: asm.Skipped,
		}
		for _, test := range asm.Tests {
			lt := legacyTest{
				Name:   asm.Name + "." + test.Name,
				Method: test.Name,
				Result: legacyResult(test.Result),
				Time:   test.Time,
			}
			if test.Failure != nil {
				lt.Failure = &legacyFailure{
					Message:    test.Failure.Message,
					StackTrace: test.Failure.Output,
				}
			}
			class.Tests = append(class.Tests, lt)
		}
		doc.Assemblies = append(doc.Assemblies, legacyAssembly{
			Name:    asm.Name,
			RunDate: asm.RunDate,
			RunTime: asm.RunTime,
			Time:    asm.Time,
			Total:   asm.Total,
			Passed:  asm.Passed,
			Failed:  asm.Failed + asm.Errors,
			Skipped: asm.Skipped,
			Classes: []legacyClass{class},
		})
	}
	return doc
}

// legacyResult folds the error status into Fail, which the legacy format does
// not distinguish.
func legacyResult(result string) string {
	if result == "Error" {
		return "Fail"
	}
	return result
}
