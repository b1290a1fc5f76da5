// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/condarun/condarun/cmd/condarun"

func main() {
	cmd.Execute()
}
