/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package commands

import (
	"fmt"

	"github.com/phuonguno98/unomon/internal/devices"
	"github.com/spf13/cobra"
)

var listDevicesCmd = &cobra.Command{
	Use:   "list-devices",
	Short: "List mount points and network interfaces",
	Long: `List all mounted filesystems and network interfaces on the system.
This helps to pick the --mount point and the include/exclude network filters.

Examples:
  # List all available devices
  unomon list-devices

  # Use the output to configure sampling
  unomon watch --mount=/data --exclude-networks="docker0"`,
	RunE: runListDevices,
}

func init() {
	rootCmd.AddCommand(listDevicesCmd)
}

func runListDevices(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintln(out, "   UnoMon - Available Devices")
	fmt.Fprintln(out, "========================================")

	mounts, err := devices.ListMounts()
	switch {
	case err != nil:
		fmt.Fprintf(errOut, "Error listing mount points: %v\n", err)
	case len(mounts) == 0:
		fmt.Fprintln(out, "\nNo mount points found.")
	default:
		fmt.Fprint(out, devices.FormatMountsTable(mounts))
		fmt.Fprintln(out, "\nExample usage:")
		fmt.Fprintf(out, "  unomon watch --mount=\"%s\"\n", mounts[len(mounts)-1].Mountpoint)
	}

	networks, err := devices.ListNetworkInterfaces()
	switch {
	case err != nil:
		fmt.Fprintf(errOut, "Error listing network interfaces: %v\n", err)
	case len(networks) == 0:
		fmt.Fprintln(out, "\nNo network interfaces found.")
	default:
		fmt.Fprint(out, devices.FormatNetworksTable(networks))
		fmt.Fprintln(out, "\nExample usage:")
		if len(networks) > 0 {
			fmt.Fprintf(out, "  unomon watch --include-networks=\"%s\"\n", networks[0].Name)
		}
		if len(networks) > 1 {
			fmt.Fprintf(out, "  unomon watch --exclude-networks=\"%s\"\n", networks[1].Name)
		}
	}

	fmt.Fprintln(out, "\nNotes:")
	fmt.Fprintln(out, "  - Use comma to separate multiple interfaces: --exclude-networks=\"eth1,eth2\"")
	fmt.Fprintln(out, "  - Exclude filters take priority over include filters")
	fmt.Fprintln(out, "  - Empty include list means monitor all interfaces (except excluded)")
	fmt.Fprintln(out, "  - Loopback interfaces are never counted in network totals")
	fmt.Fprintln(out)

	return nil
}
