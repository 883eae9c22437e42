package util

import (
	"encoding/json"
	"os"
	"path"
)

// SaveJSON writes v as indented JSON to savePath, creating parent
// directories as needed.
func SaveJSON(savePath string, v any) error {
	if err := os.MkdirAll(path.Dir(savePath), os.ModePerm); err != nil {
		return err
	}
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(savePath, bs, 0644)
}

// AppendJSONLine appends v as one JSON line to savePath, creating the file
// and parent directories if needed.
func AppendJSONLine(savePath string, v any) error {
	if err := os.MkdirAll(path.Dir(savePath), os.ModePerm); err != nil {
		return err
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(string(bs) + "\n")
	return err
}
