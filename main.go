package main

import (
	"github.com/anoixa/dicom-portal/cmd"
)

func main() {
	cmd.Execute()
}
