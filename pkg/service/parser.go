package service

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/getkin/kin-openapi/openapi3"
)

// specFilePattern matches the basename of a service document.
const specFilePattern = "{index,openapi,spec}.{yaml,yml}"

// File is one file of a service directory.
type File struct {
	Basename string
	Contents []byte
}

// Def is a service directory as read by the loader.
type Def struct {
	AbsolutePath  string
	DirectoryName string
	ServiceFiles  []File
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// Validate runs the kin-openapi document validation after loading.
	Validate bool
	// Options are applied to the created service.
	Options []Option
}

// IsSpecFile reports whether basename names a service document.
func IsSpecFile(basename string) bool {
	ok, err := doublestar.Match(specFilePattern, strings.ToLower(basename))
	return err == nil && ok
}

// FindSpecFile returns the single service document of def.
func FindSpecFile(def Def) (File, error) {
	var found []File
	for _, f := range def.ServiceFiles {
		if IsSpecFile(f.Basename) {
			found = append(found, f)
		}
	}
	switch len(found) {
	case 0:
		return File{}, &ParseError{Err: ErrSpecNotFound, Dir: def.DirectoryName}
	case 1:
		return found[0], nil
	default:
		names := make([]string, len(found))
		for i, f := range found {
			names[i] = f.Basename
		}
		return File{}, &ParseError{Err: ErrMultipleSpecs, Dir: def.DirectoryName, File: strings.Join(names, ", ")}
	}
}

// LoadDocument loads an OpenAPI document. External references are resolved relative to dir
// when it is set.
func LoadDocument(ctx context.Context, data []byte, dir, basename string, validate bool) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	loader.Context = ctx

	var (
		doc *openapi3.T
		err error
	)
	if dir != "" {
		location := &url.URL{Path: filepath.ToSlash(filepath.Join(dir, basename))}
		doc, err = loader.LoadFromDataWithPath(data, location)
	} else {
		doc, err = loader.LoadFromData(data)
	}
	if err != nil {
		return nil, err
	}
	if validate {
		if err := doc.Validate(ctx); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Parse builds a service from def. The service is named after the directory.
func Parse(ctx context.Context, def Def, opts ParseOptions) (*Service, error) {
	file, err := FindSpecFile(def)
	if err != nil {
		return nil, err
	}
	doc, err := LoadDocument(ctx, file.Contents, def.AbsolutePath, file.Basename, opts.Validate)
	if err != nil {
		return nil, &ParseError{Err: ErrInvalidSpec, Dir: def.DirectoryName, File: file.Basename, Cause: err}
	}

	options := append([]Option{WithAbsPath(def.AbsolutePath)}, opts.Options...)
	return New(def.DirectoryName, doc, options...), nil
}
