// Package server implements the relay: a websocket server that forwards
// document updates and presence between the clients of a room.
//
// The relay keeps a replica of each room's document, built from the
// room's stored update log, so that a joining client receives exactly the
// ops it lacks and the relay learns the ops it lacks from the client.
// Presence is held only while a connection lasts.
package server
