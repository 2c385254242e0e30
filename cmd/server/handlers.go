package main

import (
	"fmt"
	"strconv"

	"github.com/frogfs/frogfs/pkg/frogfs"
	"github.com/tidwall/redcon"
)

func (app *App) ping(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteString("PONG")
}

func (app *App) quit(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteString("OK")
	conn.Close()
}

// open binds a record index for access: OPEN <index>
func (app *App) open(conn redcon.Conn, cmd redcon.Command) {
	idx, ok := parseArgIndex(conn, cmd)
	if !ok {
		return
	}
	if err := app.fs.Open(idx); err != nil {
		writeErr(conn, err)
		return
	}
	conn.WriteString("OK")
}

// write appends bytes to an open record: WRITE <index> <data>
func (app *App) write(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 3 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}
	idx, err := strconv.Atoi(string(cmd.Args[1]))
	if err != nil {
		conn.WriteError("ERR invalid record index")
		return
	}
	if err := app.fs.Write(idx, cmd.Args[2]); err != nil {
		writeErr(conn, err)
		return
	}
	conn.WriteString("OK")
}

// read returns up to n bytes from a record open for read: READ <index> <n>
func (app *App) read(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 3 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}
	idx, err := strconv.Atoi(string(cmd.Args[1]))
	if err != nil {
		conn.WriteError("ERR invalid record index")
		return
	}
	n, err := strconv.Atoi(string(cmd.Args[2]))
	if err != nil || n < 0 {
		conn.WriteError("ERR invalid length")
		return
	}

	buf := make([]byte, n)
	effective, err := app.fs.Read(idx, buf)
	if err != nil {
		writeErr(conn, err)
		return
	}
	conn.WriteBulk(buf[:effective])
}

// erase deletes a record and reclaims its extents: ERASE <index>
func (app *App) erase(conn redcon.Conn, cmd redcon.Command) {
	idx, ok := parseArgIndex(conn, cmd)
	if !ok {
		return
	}
	if err := app.fs.Erase(idx); err != nil {
		writeErr(conn, err)
		return
	}
	conn.WriteString("OK")
}

// close resets a record's open-state cursors: CLOSE <index>
func (app *App) close(conn redcon.Conn, cmd redcon.Command) {
	idx, ok := parseArgIndex(conn, cmd)
	if !ok {
		return
	}
	if err := app.fs.Close(idx); err != nil {
		writeErr(conn, err)
		return
	}
	conn.WriteString("OK")
}

// list reports every record index that currently exists: LIST
func (app *App) list(conn redcon.Conn, cmd redcon.Command) {
	buf := make([]int, frogfs.MaxRecords)
	count, err := app.fs.List(buf)
	if err != nil {
		writeErr(conn, err)
		return
	}
	conn.WriteArray(count)
	for _, idx := range buf[:count] {
		conn.WriteInt(idx)
	}
}

// next returns the smallest unused record index: NEXT
func (app *App) next(conn redcon.Conn, cmd redcon.Command) {
	idx, err := app.fs.NextAvailable()
	if err != nil {
		writeErr(conn, err)
		return
	}
	conn.WriteInt(idx)
}

func parseArgIndex(conn redcon.Conn, cmd redcon.Command) (int, bool) {
	if len(cmd.Args) != 2 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return 0, false
	}
	idx, err := strconv.Atoi(string(cmd.Args[1]))
	if err != nil {
		conn.WriteError("ERR invalid record index")
		return 0, false
	}
	return idx, true
}

func writeErr(conn redcon.Conn, err error) {
	conn.WriteString(fmt.Sprintf("ERR: %s", err))
}
