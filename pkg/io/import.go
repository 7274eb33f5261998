package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	errs "github.com/matzehuels/widetable/pkg/errors"
	"github.com/matzehuels/widetable/pkg/frame"
)

// ReadJSON decodes a table in split layout from r.
//
// ReadJSON fails with INVALID_FORMAT when the JSON is malformed, when the
// index and data lengths disagree or when a row's width differs from the
// number of columns. A missing index yields positional keys. ReadJSON does
// not close r.
func ReadJSON(r io.Reader) (*frame.Table, error) {
	var t frame.Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		if errs.GetCode(err) != "" {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode")
	}
	return &t, nil
}

// ImportJSON reads a JSON table from the file at path.
func ImportJSON(path string) (*frame.Table, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errs.New(errs.ErrCodeFileNotFound, "%s: no such file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
