package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cppparser/pkg/ast"
)

// Test content for document operations
const testHeaderContent = `
#pragma once

/**
 * @brief Test namespace for document testing
 */
namespace TestNS {

/**
 * @brief A simple calculator class
 */
class Calculator {
public:
    /**
     * @brief Default constructor
     */
    Calculator();

    /**
     * @brief Adds two numbers
     * @param a First number
     * @param b Second number
     * @return Sum of a and b
     */
    int add(int a, int b);

    // This function lacks documentation
    int subtract(int a, int b);

private:
    int result_;
};

// Global function without documentation
void globalFunction();

/**
 * @brief Global documented function
 * @param value Input value
 * @return Processed value
 */
int processValue(int value);

/**
 * @brief Scales a value
 * @param factor Scale factor
 * @param offset Not a parameter
 */
double scale(double value, double factor);

} // namespace TestNS
`

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc, err := NewFromContent("test.hpp", testHeaderContent)
	if err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}
	return doc
}

func names(decls []ast.Declaration) map[string]bool {
	out := make(map[string]bool)
	for _, d := range decls {
		out[d.Base().Name()] = true
	}
	return out
}

func TestNewFromContent(t *testing.T) {
	doc := newTestDocument(t)

	if doc.Filename() != "test.hpp" {
		t.Errorf("Expected filename 'test.hpp', got '%s'", doc.Filename())
	}
	if doc.IsModified() {
		t.Error("New document should not be modified")
	}

	tests := []struct {
		path  string
		found bool
	}{
		{"TestNS", true},
		{"TestNS::Calculator", true},
		{"::TestNS::Calculator::add", true},
		{"TestNS::processValue", true},
		{"TestNS::missing", false},
		{"add", false},
	}
	for _, tt := range tests {
		if got := doc.Find(tt.path) != nil; got != tt.found {
			t.Errorf("Find(%q) found = %v, want %v", tt.path, got, tt.found)
		}
	}

	if found := doc.FindByName("add"); len(found) != 1 {
		t.Errorf("FindByName(add) returned %d declarations, want 1", len(found))
	}
}

func TestUndocumented(t *testing.T) {
	doc := newTestDocument(t)
	undocumented := names(doc.Undocumented())

	for _, name := range []string{"subtract", "result_", "globalFunction"} {
		if !undocumented[name] {
			t.Errorf("%s should be undocumented", name)
		}
	}
	for _, name := range []string{"add", "Calculator", "processValue", "TestNS"} {
		if undocumented[name] {
			t.Errorf("%s should be documented", name)
		}
	}

	stats := doc.Stats()
	if stats.Total != stats.Documented+stats.Undocumented || stats.Undocumented != len(doc.Undocumented()) {
		t.Errorf("inconsistent stats %+v", stats)
	}
	if stats.Coverage <= 0 || stats.Coverage >= 100 {
		t.Errorf("Coverage = %.1f", stats.Coverage)
	}
}

func TestSetBrief(t *testing.T) {
	doc := newTestDocument(t)

	if err := doc.SetBrief("TestNS::globalFunction", "Does global work"); err != nil {
		t.Fatalf("SetBrief failed: %v", err)
	}
	if !doc.IsModified() {
		t.Error("Document should be modified")
	}
	d := doc.Find("TestNS::globalFunction")
	if !ast.HasComment(d) || d.Base().Comment.Brief != "Does global work" {
		t.Errorf("comment not set: %+v", d.Base().Comment)
	}

	code := doc.SaveToString()
	if !strings.Contains(code, "@brief Does global work") {
		t.Errorf("regenerated code lacks the new brief:\n%s", code)
	}
	if err := doc.SetBrief("TestNS::nothing", "x"); err == nil {
		t.Error("expected an error for a missing declaration")
	}
}

func TestFunctionDocumentationErrors(t *testing.T) {
	doc := newTestDocument(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"unknown parameter", func() error { return doc.SetParam("TestNS::processValue", "missing", "x") }},
		{"param of a class", func() error { return doc.SetParam("TestNS::Calculator", "a", "x") }},
		{"return of void", func() error { return doc.SetReturn("TestNS::globalFunction", "x") }},
		{"return of constructor", func() error { return doc.SetReturn("TestNS::Calculator::Calculator", "x") }},
		{"not found", func() error { return doc.SetDeprecated("TestNS::gone", "x") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if err := doc.SetParam("TestNS::Calculator::subtract", "b", "Subtrahend"); err != nil {
		t.Errorf("SetParam failed: %v", err)
	}
	if err := doc.SetReturn("TestNS::Calculator::subtract", "Difference"); err != nil {
		t.Errorf("SetReturn failed: %v", err)
	}
	comment := doc.Find("TestNS::Calculator::subtract").Base().Comment
	if comment.Params["b"] != "Subtrahend" || comment.Returns != "Difference" || comment.Raw == "" {
		t.Errorf("unexpected comment %+v", comment)
	}
}

func TestAddGroup(t *testing.T) {
	doc := newTestDocument(t)

	for i := 0; i < 2; i++ {
		if err := doc.AddGroup("TestNS::Calculator", "math"); err != nil {
			t.Fatalf("AddGroup failed: %v", err)
		}
	}
	if err := doc.AddGroup("TestNS::Calculator", "core"); err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}

	comment := doc.Find("TestNS::Calculator").Base().Comment
	if got := comment.CustomTags["ingroup"]; got != "math core" {
		t.Errorf("ingroup = %q, want %q", got, "math core")
	}
	if comment.Brief != "A simple calculator class" {
		t.Errorf("existing brief lost: %q", comment.Brief)
	}
}

func TestValidate(t *testing.T) {
	doc := newTestDocument(t)

	kinds := make(map[string][]string)
	for _, issue := range doc.Validate() {
		kinds[issue.Path] = append(kinds[issue.Path], issue.Kind)
	}

	tests := []struct {
		path string
		want []string
	}{
		{"TestNS::Calculator::subtract", []string{"missing_documentation"}},
		{"TestNS::scale", []string{"missing_return", "missing_param", "unknown_param"}},
		{"TestNS::processValue", nil},
		{"TestNS::Calculator::add", nil},
	}
	for _, tt := range tests {
		if strings.Join(kinds[tt.path], ",") != strings.Join(tt.want, ",") {
			t.Errorf("%s: issues %v, want %v", tt.path, kinds[tt.path], tt.want)
		}
	}
}

func TestApplyBatchUpdates(t *testing.T) {
	doc := newTestDocument(t)
	brief := "Subtracts two numbers"
	ret := "Difference of a and b"

	err := doc.ApplyBatchUpdates([]BatchUpdate{{
		Path:       "TestNS::Calculator::subtract",
		Brief:      &brief,
		Params:     map[string]string{"a": "Minuend", "b": "Subtrahend"},
		Return:     &ret,
		Groups:     []string{"math"},
		CustomTags: map[string]string{"since": "2.0"},
	}})
	if err != nil {
		t.Fatalf("ApplyBatchUpdates failed: %v", err)
	}

	for _, issue := range doc.Validate() {
		if issue.Path == "TestNS::Calculator::subtract" {
			t.Errorf("unexpected issue after update: %+v", issue)
		}
	}

	bad := doc.ApplyBatchUpdates([]BatchUpdate{{Path: "TestNS::globalFunction", Return: &ret}})
	if bad == nil {
		t.Error("expected an error for a return on a void function")
	}
}

func TestSaveAs(t *testing.T) {
	doc := newTestDocument(t)
	if err := doc.SetBrief("TestNS::scale", "Scales"); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out.hpp")
	if err := doc.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
	if doc.IsModified() || doc.Filename() != path {
		t.Errorf("after SaveAs: modified=%v filename=%s", doc.IsModified(), doc.Filename())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != doc.Content() || !strings.Contains(string(data), "namespace TestNS {") {
		t.Errorf("unexpected file content:\n%s", data)
	}

	// the regenerated file parses to the same declarations
	reparsed, err := NewFromContent(path, string(data))
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if reparsed.Find("TestNS::Calculator::add") == nil || !ast.HasComment(reparsed.Find("TestNS::scale")) {
		t.Error("regenerated file lost declarations or comments")
	}
}

func TestContext(t *testing.T) {
	doc := newTestDocument(t)
	context, err := doc.Context("TestNS::Calculator::add", true, false)
	if err != nil {
		t.Fatalf("Context failed: %v", err)
	}
	if !strings.Contains(context, "// Parent context:") || !strings.Contains(context, "add(") {
		t.Errorf("unexpected context:\n%s", context)
	}
	if !strings.Contains(doc.String(), "Document[test.hpp]") {
		t.Errorf("String() = %q", doc.String())
	}
}
