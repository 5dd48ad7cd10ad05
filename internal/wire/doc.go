// Package wire defines the JSON messages exchanged with the gateway.
//
// Outbound: register {type,user,dev}, ping {type}, response
// {type,taskid,result{parsed,html,rawStatus}}, error
// {type,taskid,error,errorCode,rawStatus}.
//
// Inbound: an envelope with a "type" discriminator; only type "request"
// carries a payload the client acts on ({method,url,headers,body,timeout}).
//
// Decode rejects frames that are not JSON objects instead of erroring, so a
// garbage frame never tears down the channel.
package wire
