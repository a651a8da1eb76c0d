// Package carrier balances the electricity, heat and cooling buses every
// step. A carrier holds no storage: it sums what its links publish for the
// current step and dispatches the residual over the flexible components in
// a fixed priority order.
//
// Power signs follow the bus: inputs positive, outputs negative. Flows hand
// in magnitudes and the carrier applies the sign of the side they are
// attached to.
package carrier
