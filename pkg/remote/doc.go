// Package remote drives a host tree that lives on the other side of a
// connection.
//
// Backend is handed to edom.Mount on the server. The engine renders into a
// memdom mirror and every mirror mutation becomes a protocol.HostOp; after
// each pass the server flushes the buffered ops as one protocol.OpsFrame.
// Event frames coming back are fed to Backend.HandleEvent, which updates
// the mirror's input properties and fires the engine's dispatch slot.
//
// Mirror is the receiving end. It applies ops frames to its own memdom
// document and turns listener firings on that document into event frames,
// standing in for the browser client in tests and tools.
package remote
