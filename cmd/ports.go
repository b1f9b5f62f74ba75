/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/allbin/trafficlight/internal/serialport"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// portsCmd represents the ports command
var portsCmd = &cobra.Command{
	Use:     "ports",
	Aliases: []string{"list"},
	Short:   "List serial ports the controller may be attached to",
	Long: `List the serial ports found on the system.

USB adapters (ttyUSB*, ttyACM*) are marked with their vendor and product
IDs. The port picked when no port is given is marked with an asterisk.

Virtual terminals and pseudo-terminals are excluded from the listing.`,
	Run: func(cmd *cobra.Command, args []string) {
		infos, err := serialport.ListPortInfo()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		usbOnly, _ := cmd.Flags().GetBool("usb")
		tableFormat, _ := cmd.Flags().GetBool("table")

		infos = filterPorts(infos, usbOnly)
		if len(infos) == 0 {
			if usbOnly {
				fmt.Println("No USB serial ports found")
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		defaultPort, _ := serialport.DefaultPort()
		if tableFormat {
			renderTable(infos, defaultPort)
		} else {
			renderSimple(infos)
		}
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)

	portsCmd.Flags().BoolP("usb", "u", false, "Only list USB serial ports")
	portsCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

func filterPorts(infos []*serialport.PortInfo, usbOnly bool) []*serialport.PortInfo {
	if !usbOnly {
		return infos
	}
	var filtered []*serialport.PortInfo
	for _, info := range infos {
		if info.IsUSB {
			filtered = append(filtered, info)
		}
	}
	return filtered
}

// usbID formats vendor and product as VID:PID
func usbID(info *serialport.PortInfo) string {
	if !info.IsUSB {
		return "-"
	}
	return strings.ToLower(info.VendorID + ":" + info.ProductID)
}

// renderTable renders the port list in a styled static table format
func renderTable(infos []*serialport.PortInfo, defaultPort string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(infos))

	portWidth := 16
	idWidth := 11
	descWidth := 22

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("240"))

	cellStyle := lipgloss.NewStyle().PaddingRight(2)
	defaultStyle := cellStyle.Foreground(lipgloss.Color("42"))

	header := fmt.Sprintf("  %-*s %-*s %-*s %s",
		portWidth, "Port",
		idWidth, "USB ID",
		descWidth, "Description",
		"Serial")
	fmt.Println(headerStyle.Render(header))

	for _, info := range infos {
		marker, style := " ", cellStyle
		if info.Path == defaultPort {
			marker, style = "*", defaultStyle
		}
		row := fmt.Sprintf("%s %-*s %-*s %-*s %s",
			marker,
			portWidth, info.Name,
			idWidth, usbID(info),
			descWidth, info.Description,
			info.SerialNumber)
		fmt.Println(style.Render(row))
	}
}

// renderSimple renders the port list in simple text format
func renderSimple(infos []*serialport.PortInfo) {
	for _, info := range infos {
		fmt.Println(info.Path)
	}
}
