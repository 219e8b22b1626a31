package repository

import (
	"fmt"
	"strings"

	"github.com/nikolayk812/shopcart/internal/port"
)

func validateScope(scope string) error {
	if strings.TrimSpace(scope) == "" {
		return fmt.Errorf("scope is empty")
	}
	return nil
}

func validateSlots(slots ...port.Slot) error {
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateValues(values map[port.Slot][]byte) error {
	for slot := range values {
		if err := slot.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func slotNames(slots []port.Slot) []string {
	names := make([]string, 0, len(slots))
	for _, slot := range slots {
		names = append(names, string(slot))
	}
	return names
}
