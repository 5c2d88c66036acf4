// Package models declares the network inventory schema: which attributes
// identify a device, interface, or VLAN, which are comparable data, and how
// the types nest.
package models
