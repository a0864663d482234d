package main

import (
	"fmt"

	"github.com/itohio/goldat/pkg/ldat"
)

// PortsCmd lists the serial ports an LDAT may be attached to.
type PortsCmd struct {
	USBOnly bool `help:"Only list USB ports." name:"usb"`
}

func (c *PortsCmd) Run() error {
	ports, err := ldat.Ports()
	if err != nil {
		return err
	}
	for _, p := range ports {
		if c.USBOnly && !p.IsUSB {
			continue
		}
		if p.Description != "" {
			fmt.Printf("%s\t%s\n", p.Name, p.Description)
		} else {
			fmt.Println(p.Name)
		}
	}
	return nil
}
