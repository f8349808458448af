// Package hostsim provides simulated chat hosts for tests, demos, and
// local add-in development.
//
// Broker speaks the message-transport envelope protocol over a
// channel.Channel; NativeHost populates a hostenv.Environment the way a
// native integration does; BrokerServer serves one Broker per websocket
// connection. All three answer from a Fixture, loadable from YAML.
package hostsim
