// Package query implements the callback wire format used on inline
// keyboard buttons: a delimited string `category*command[*args...]`.
// The raw strings stay on the wire; handlers work with the parsed form.
package query

import (
	"fmt"
	"strings"
)

// Delimiter separates the category, command and arguments on the wire.
const Delimiter = "*"

// Category routes a callback to its top-level handler.
type Category string

const (
	CategoryCommands     Category = "c"
	CategoryConversation Category = "ch"
	CategorySupport      Category = "sp"
	CategoryAdmin        Category = "adm"
	CategoryNewTicket    Category = "new"
)

// Command names an operation within a category.
type Command string

const (
	CmdLangCode      Command = "l_c_h"
	CmdConfirm       Command = "con_h"
	CmdDelete        Command = "d"
	CmdDeleteMessage Command = "dlt_m"
	CmdMenu          Command = "menu"
	CmdAdmin         Command = "admin"
	CmdSupport       Command = "support"
	CmdMyOpenTickets Command = "my_o_t"
	CmdSupportHelp   Command = "sp_hp"
	CmdNewTicket     Command = "n_t"
	CmdTicket        Command = "ticket"
	CmdTicketSelect  Command = "t_sel"
	CmdTicketClose   Command = "t_cls"
	CmdNewPayoff     Command = "nnp"
	CmdWithdrawList  Command = "cwd"
	CmdIncreaseLevel Command = "il"
	CmdDecreaseLevel Command = "dl"
	CmdNewCalc       Command = "gltfd"
)

// Query is the parsed form of one callback payload.
type Query struct {
	Category Category
	Command  Command
	Args     []string
}

// Parse decodes a raw callback payload. The category is mandatory; the
// command and arguments are optional (the new-ticket entry point is a
// bare category).
func Parse(data string) (Query, error) {
	if data == "" {
		return Query{}, fmt.Errorf("query: empty callback payload")
	}
	parts := strings.Split(data, Delimiter)

	q := Query{Category: Category(parts[0])}
	if len(parts) > 1 {
		q.Command = Command(parts[1])
	}
	if len(parts) > 2 {
		q.Args = parts[2:]
	}
	return q, nil
}

// Encode renders the query back to its wire form.
func (q Query) Encode() string {
	parts := []string{string(q.Category)}
	if q.Command != "" || len(q.Args) > 0 {
		parts = append(parts, string(q.Command))
	}
	parts = append(parts, q.Args...)
	return strings.Join(parts, Delimiter)
}

// Arg returns the i-th argument, or "" when absent.
func (q Query) Arg(i int) string {
	if i < 0 || i >= len(q.Args) {
		return ""
	}
	return q.Args[i]
}

// Build is shorthand for constructing an encoded payload.
func Build(cat Category, cmd Command, args ...string) string {
	return Query{Category: cat, Command: cmd, Args: args}.Encode()
}
