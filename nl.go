// Package nl implements the client side of netlink addressing.
//
// Outbound messages are allocated with package nlmsg and completed on a socket
// from package nlsock before they are sent. Completion fills in what the kernel
// needs to route a request and its reply:
//
//   - The protocol of the message, taken from the socket unless the caller chose one.
//   - The request and ACK flags, added to whatever flags the caller set.
//   - The sender's port ID, taken from the socket unless the caller chose one.
package nl
