// Package telegram sends ticket availability reports through the Telegram Bot API.
//
// Messages use the HTML parse mode. Authentication requires a bot token (from
// @BotFather) and the id of the chat to post into.
package telegram
