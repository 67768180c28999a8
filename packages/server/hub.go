package server

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/vogtb/go-cellcalc/packages/formula"
	"github.com/vogtb/go-cellcalc/packages/grid"
)

// commands understood by the hub
const (
	CommandSet     = "SET"
	CommandGet     = "GET"
	CommandEval    = "EVAL"
	CommandEvalAll = "EVAL-ALL"
)

// replies sent by the hub
const (
	ReplyText   = "TEXT"
	ReplyValue  = "VALUE"
	ReplyError  = "ERROR"
	ReplyStatus = "STATUS"
)

type command struct {
	client *Client
	args   []string
}

type export struct {
	data []byte
	err  error
}

// Hub owns the sheet and the calculator. every command from every client
// is applied by the hub goroutine, one at a time.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	commands   chan command
	exports    chan chan export
	done       chan struct{}

	sheet     *grid.Sheet
	calc      *formula.Calculator
	precision int32
	logger    zerolog.Logger
}

func newHub(sheet *grid.Sheet, calc *formula.Calculator, precision int32, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan command),
		exports:    make(chan chan export),
		done:       make(chan struct{}),
		sheet:      sheet,
		calc:       calc,
		precision:  precision,
		logger:     logger,
	}
}

func (h *Hub) run(ctx context.Context) {
	defer func() {
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info().Str("client", client.id).Int("clients", len(h.clients)).Msg("client registered")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info().Str("client", client.id).Int("clients", len(h.clients)).Msg("client unregistered")
			}
		case cmd := <-h.commands:
			h.handle(cmd)
		case reply := <-h.exports:
			var buf bytes.Buffer
			err := grid.WriteCSV(&buf, h.sheet, h.precision)
			reply <- export{data: buf.Bytes(), err: err}
		}
	}
}

func (h *Hub) handle(cmd command) {
	if len(cmd.args) == 0 {
		h.reply(cmd.client, ReplyError, "", "empty command")
		return
	}
	h.logger.Debug().Str("client", cmd.client.id).Strs("args", cmd.args).Msg("command")

	switch name := cmd.args[0]; name {
	case CommandSet:
		if len(cmd.args) != 3 {
			h.reply(cmd.client, ReplyError, "", "SET takes a label and a text")
			return
		}
		coord, err := formula.ParseCoordinate(cmd.args[1])
		if err != nil {
			h.reply(cmd.client, ReplyError, cmd.args[1], err.Error())
			return
		}
		h.sheet.SetCellText(coord.Row, coord.Col, cmd.args[2])
		h.broadcast(ReplyText, coord.String(), cmd.args[2])
		h.evaluate(coord)

	case CommandGet:
		if len(cmd.args) != 2 {
			h.reply(cmd.client, ReplyError, "", "GET takes a label")
			return
		}
		cell, err := h.sheet.Get(cmd.args[1])
		if err != nil {
			h.reply(cmd.client, ReplyError, cmd.args[1], err.Error())
			return
		}
		h.reply(cmd.client, ReplyText, cell.Label(), cell.Text)
		if cell.HasValue {
			h.reply(cmd.client, ReplyValue, cell.Label(), formula.FormatValue(cell.Value, h.precision))
		}

	case CommandEval:
		if len(cmd.args) != 2 {
			h.reply(cmd.client, ReplyError, "", "EVAL takes a label")
			return
		}
		coord, err := formula.ParseCoordinate(cmd.args[1])
		if err != nil {
			h.reply(cmd.client, ReplyError, cmd.args[1], err.Error())
			return
		}
		h.evaluate(coord)

	case CommandEvalAll:
		results := grid.EvaluateAll(h.sheet, h.calc)
		for _, r := range results {
			h.publish(r.Cell.Label(), r.Value, r.Err)
		}
		failed := len(grid.Failed(results))
		h.broadcast(ReplyStatus, statusLine(len(results), failed))

	default:
		h.reply(cmd.client, ReplyError, "", "unknown command "+name)
	}
}

func (h *Hub) evaluate(coord formula.Coordinate) {
	value, err := h.calc.EvaluateCell(coord.Row, coord.Col)
	h.publish(coord.String(), value, err)
}

// publish broadcasts the outcome of one evaluation. the calculator's status
// only reflects its last evaluation, so failures always carry the fixed
// failure status.
func (h *Hub) publish(label string, value float64, err error) {
	if err != nil {
		h.broadcast(ReplyError, label, formula.InvalidFormulaStatus, err.Error())
		return
	}
	h.broadcast(ReplyValue, label, formula.FormatValue(value, h.precision))
}

func (h *Hub) reply(client *Client, fields ...string) {
	h.deliver(client, encode(fields))
}

func (h *Hub) broadcast(fields ...string) {
	message := encode(fields)
	for client := range h.clients {
		h.deliver(client, message)
	}
}

// deliver drops clients that cannot keep up
func (h *Hub) deliver(client *Client, message []byte) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- message:
	default:
		close(client.send)
		delete(h.clients, client)
		h.logger.Warn().Str("client", client.id).Msg("client too slow, dropped")
	}
}

// exportCSV renders the sheet through the hub goroutine
func (h *Hub) exportCSV(ctx context.Context) ([]byte, error) {
	reply := make(chan export, 1)
	select {
	case h.exports <- reply:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		return nil, errHubStopped
	}

	select {
	case res := <-reply:
		return res.data, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func encode(fields []string) []byte {
	// a []string always marshals
	data, _ := json.Marshal(fields)
	return data
}
