// Package hydrogen models the hydrogen path: a PEM electrolyzer and a PEM
// fuel cell sharing one pressurized tank.
//
// The electrolyzer only runs when the offered surplus clears its partial
// load minimum and the tank can take a full timestep of nominal production.
// The fuel cell runs between its minimum operating point and nominal power
// and undoes its own step when the tank would go below empty.
package hydrogen
