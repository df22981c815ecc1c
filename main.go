package main

import (
	"github.com/stokaro/ptahdiff/cmd/ptahdiff"
)

func main() {
	ptahdiff.Execute()
}
