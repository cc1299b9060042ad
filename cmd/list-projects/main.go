// Command list-projects is a JSON stdin/stdout wrapper around the store.
package main

import "github.com/iska-scrum/iska/internal/tool"

func main() {
	tool.Exec(tool.ListProjects)
}
