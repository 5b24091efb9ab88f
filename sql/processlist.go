package sql

import (
	"sync"
	"time"
)

// Process is one in-flight query tracked by the ProcessList and killable by
// connection id. SHOW PROCESSLIST is not among the SHOW forms the
// planbuilder builds, so no statement reads it.
type Process struct {
	Connection uint32
	User       string
	Query      string
	StartedAt  time.Time
	Database   string
	cancel     func()
}

// ProcessList tracks in-flight queries per connection.
type ProcessList interface {
	AddProcess(ctx *Context, query string) uint64
	EndQuery(ctx *Context)
	Processes() []Process
	Kill(connID uint32)
}

type processList struct {
	mu      sync.Mutex
	nextPid uint64
	byPid   map[uint64]*Process
}

// NewProcessList returns an empty, process-wide ProcessList.
func NewProcessList() ProcessList {
	return &processList{byPid: make(map[uint64]*Process)}
}

func (p *processList) AddProcess(ctx *Context, query string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextPid++
	pid := p.nextPid
	p.byPid[pid] = &Process{
		Connection: ctx.Pid32(),
		User:       ctx.Session.Client().User,
		Query:      query,
		StartedAt:  time.Now(),
		Database:   ctx.GetCurrentDatabase(),
	}
	return pid
}

func (p *processList) EndQuery(ctx *Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byPid, ctx.Pid())
}

func (p *processList) Processes() []Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Process, 0, len(p.byPid))
	for _, proc := range p.byPid {
		out = append(out, *proc)
	}
	return out
}

func (p *processList) Kill(connID uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for pid, proc := range p.byPid {
		if proc.Connection == connID {
			if proc.cancel != nil {
				proc.cancel()
			}
			delete(p.byPid, pid)
		}
	}
}
