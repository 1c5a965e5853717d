package cmd

import (
	"fmt"
	"os"
)

func check(err error) {
	if err != nil {
		fmt.Printf("error, %v\n", err)
		os.Exit(-1)
	}
}

func parseVec3(s string) (x, y, z float32, err error) {
	n, err := fmt.Sscanf(s, "%f,%f,%f", &x, &y, &z)
	if err != nil {
		return 0, 0, 0, err
	}
	if n != 3 {
		return 0, 0, 0, fmt.Errorf("want 3 comma-separated floats, got %q", s)
	}
	return x, y, z, nil
}
