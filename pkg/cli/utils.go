package cli

import (
	"github.com/secmon-lab/ticketsync/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, flag := range flags {
		result = append(result, flag...)
	}
	return result
}

func ticketIDFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "ticket-id",
		Aliases:     []string{"t"},
		Usage:       "Ticket ID",
		Required:    true,
		Destination: dst,
		Validator: func(s string) error {
			return types.TicketID(s).Validate()
		},
	}
}
