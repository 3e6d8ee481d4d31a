package cmd

import (
	"encoding/json"
	"fmt"
	"io"
)

func printMessageWithData(w io.Writer, message string, data any) {
	dump, err := marshalIndent(data)
	if err != nil {
		printError(w, err)
		return
	}
	fmt.Fprintf(w, "%s%s\n", message, dump)
}

func marshalIndent(v any) ([]byte, error) {
	dump, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return dump, nil
}

func printError(w io.Writer, err any) {
	fmt.Fprintf(w, "ERROR: %v\n", err)
}

func errorCLIModeRestriction(command string) error {
	return fmt.Errorf("%s command can be only used on a selected shipment. Call first `id`", command)
}

func errorWithID(err error, id any) error {
	return fmt.Errorf("%w, ID: %v", err, id)
}
