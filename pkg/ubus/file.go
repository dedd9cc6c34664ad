package ubus

import (
	"context"
	"strings"
)

// ExecResult is the outcome of file.exec. Code is nil when rpcd did not report one.
type ExecResult struct {
	Code   *int   `json:"code"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Exec runs command with params through rpcd's file plugin.
func (c *Client) Exec(ctx context.Context, command string, params []string) (*ExecResult, error) {
	args := map[string]interface{}{"command": command}
	if len(params) > 0 {
		args["params"] = params
	}

	var out ExecResult
	if err := c.Call(ctx, "file", "exec", args, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// FileEntry is one directory entry returned by file.list.
type FileEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Mode int    `json:"mode"`
}

// IsRegular reports whether the entry is a regular file.
func (e FileEntry) IsRegular() bool {
	return e.Type == "file"
}

// IsHidden reports whether the entry is a dot-file.
func (e FileEntry) IsHidden() bool {
	return strings.HasPrefix(e.Name, ".")
}

// FileList lists the entries of a directory.
func (c *Client) FileList(ctx context.Context, path string) ([]FileEntry, error) {
	var out struct {
		Entries []FileEntry `json:"entries"`
	}

	if err := c.Call(ctx, "file", "list", map[string]string{"path": path}, &out); err != nil {
		return nil, err
	}

	return out.Entries, nil
}
