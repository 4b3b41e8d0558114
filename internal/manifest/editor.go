package manifest

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/beevik/etree"
)

// DefaultSection is the section edited when Options.Section is empty.
const DefaultSection = "metadata"

// Error reports a manifest that cannot be edited.
type Error struct {
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("manifest %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNoEdits is returned by Edit for an empty request when FailIfEmpty is set.
var ErrNoEdits = errors.New("no property to write: provide a single property and value, or a bulk list")

// Options configures Edit.
type Options struct {
	// Section is the element under <package> holding the properties.
	Section string
	// FailIfEmpty makes an empty request an error instead of a no-op.
	FailIfEmpty bool
	// Info receives informational messages. Optional.
	Info func(format string, args ...any)
}

// Edit applies req to the manifest at path and rewrites the file. It
// reports whether the file was written.
func Edit(path string, req Request, opts Options) (bool, error) {
	if req.IsZero() {
		if opts.FailIfEmpty {
			return false, &Error{Path: path, Message: "invalid parameters", Err: ErrNoEdits}
		}
		if opts.Info != nil {
			opts.Info("No content provided to write to %s. Exiting.", path)
		}
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, &Error{Path: path, Message: "could not find file, make sure it exists and its permissions are correct", Err: err}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return false, &Error{Path: path, Message: "reading XML", Err: err}
	}

	if err := apply(doc, req, opts.Section); err != nil {
		return false, &Error{Path: path, Message: err.Error()}
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		return false, &Error{Path: path, Message: "serializing XML", Err: err}
	}
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return false, &Error{Path: path, Message: "writing file", Err: err}
	}
	return true, nil
}

// EditString applies req to manifest text and returns the new text.
func EditString(text string, req Request, section string) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return "", fmt.Errorf("reading XML: %w", err)
	}
	if err := apply(doc, req, section); err != nil {
		return "", err
	}
	return doc.WriteToString()
}

// Property returns the text of a property, and whether it exists.
func Property(path, section, property string) (string, bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return "", false, &Error{Path: path, Message: "reading XML", Err: err}
	}
	sec, err := findSection(doc, section)
	if err != nil {
		return "", false, &Error{Path: path, Message: err.Error()}
	}
	prop := sec.SelectElement(property)
	if prop == nil {
		return "", false, nil
	}
	return prop.Text(), true, nil
}

func apply(doc *etree.Document, req Request, section string) error {
	sec, err := findSection(doc, section)
	if err != nil {
		return err
	}

	root := doc.Root()
	for _, edit := range req.Edits() {
		prop := sec.SelectElement(edit.Property)
		if prop == nil {
			tag := edit.Property
			if root.Space != "" && !strings.Contains(tag, ":") {
				tag = root.Space + ":" + tag
			}
			prop = sec.CreateElement(tag)
		}
		prop.SetText(edit.Mode.Apply(prop.Text(), edit.Value))
	}
	return nil
}

func findSection(doc *etree.Document, section string) (*etree.Element, error) {
	if section == "" {
		section = DefaultSection
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("invalid NuSpec file: <package> does not exist")
	}
	if root.Tag != "package" {
		return nil, fmt.Errorf("invalid NuSpec file: <package> does not exist, got <%s> instead", root.FullTag())
	}

	sec := root.SelectElement(section)
	if sec == nil {
		return nil, fmt.Errorf("invalid section '%s': section does not exist", section)
	}
	return sec, nil
}
