/*

Package sender provides a client for the Zabbix sender (trapper) protocol.

Items are encoded into a single "sender data" request, framed behind the 13 byte ZBXD header
and written to a fresh TCP connection. The server's framed JSON reply is decoded into a Response
carrying the processed, failed and total item counts.

Example

The following sends one value to a trapper item on a server listening on the default port 10051:

	s, err := sender.New(sender.Config{Server: "zabbix.example.com"})

	resp, err := s.Send(ctx, sender.NewItem("web01", "app.requests", 42))
	fmt.Println(resp.Processed, resp.Failed)

A simple implementation of protocol.Metric is also provided so line protocol style producers
need no Influx specific implementation. FromMetric turns each field into an item:

	metric := sender.NewSimpleMetric("cpu")
	metric.AddTag("host", "web01")
	metric.AddField("usage", 3.14)
	resp, err = s.Send(ctx, sender.FromMetric("fallback-host", metric)...)

Send performs exactly one exchange per call and never retries. The batch package groups
items from many producers into fewer sends.

*/
package sender
