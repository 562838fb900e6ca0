// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/handlerpack/handlerpack/cmd/handlerpack"

func main() {
	cmd.Execute()
}
