package config

type WorkerKeyStruct struct {
	SessionEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	SessionEventsQueue: "session_events_queue",
}
