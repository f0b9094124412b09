package catalog

import (
	"fmt"
	"strings"
)

func itemPath(base string, id int) string {
	return fmt.Sprintf("%s%d/", base, id)
}

func orDefault(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
