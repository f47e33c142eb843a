package api

import (
	"github.com/oceanplexian/naemon/internal/downtime"
	"github.com/oceanplexian/naemon/internal/logging"
	"github.com/oceanplexian/naemon/internal/objects"
)

// StateProvider gives the livestatus API access to all runtime state.
type StateProvider struct {
	Store     *objects.ObjectStore
	Global    *objects.GlobalState
	Comments  *downtime.CommentManager
	Downtimes *downtime.DowntimeManager
	Logger    *logging.Logger
	LogFile   string
}

// CommandSink is a callback for executing external commands from the API.
type CommandSink func(name string, args []string)

// CommandEntry is a single parsed external command.
type CommandEntry struct {
	Name string
	Args []string
}

// BatchCommandSink is a callback for executing several external commands at once.
type BatchCommandSink func(cmds []CommandEntry)
