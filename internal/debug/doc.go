/*
Package debug provides conditional runtime assertions and debug logging.

# Using Assert

To enable runtime assertions, build with the assert tag. When the assert tag
is omitted, Assert compiles to nothing.

# Using Log

To enable debug logs, build with the debug tag. When the debug tag is omitted,
Log compiles to nothing.
*/
package debug
